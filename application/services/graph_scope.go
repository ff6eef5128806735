package services

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"pathfinder-backend/application/commands"
	"pathfinder-backend/application/ports"
	domainconfig "pathfinder-backend/domain/config"
	"pathfinder-backend/domain/core/entities"
	"pathfinder-backend/domain/core/valueobjects"
)

// GraphScope runs the find-or-create ingestion algorithms for one graph
// inside one transaction. It is not safe for concurrent use; the caller
// serializes ingestion per graph.
type GraphScope struct {
	tx      ports.GraphTx
	graphID valueobjects.GraphID
	cfg     *domainconfig.DomainConfig
	logger  *zap.Logger

	known   map[string]valueobjects.TopicID
	pairs   map[string]struct{}
	created int
	edges   int
	skipped []commands.SkippedConnection
}

// NewGraphScope binds tx to graphID
func NewGraphScope(tx ports.GraphTx, graphID valueobjects.GraphID, cfg *domainconfig.DomainConfig, logger *zap.Logger) *GraphScope {
	return &GraphScope{
		tx:      tx,
		graphID: graphID,
		cfg:     cfg,
		logger:  logger,
		known:   make(map[string]valueobjects.TopicID),
		pairs:   make(map[string]struct{}),
		skipped: []commands.SkippedConnection{},
	}
}

// CreatedTopics is the number of topics inserted through this scope
func (s *GraphScope) CreatedTopics() int { return s.created }

// CreatedEdges is the number of edges inserted through this scope
func (s *GraphScope) CreatedEdges() int { return s.edges }

// Skipped lists every dropped pair in input order
func (s *GraphScope) Skipped() []commands.SkippedConnection { return s.skipped }

// UpsertTopics resolves every record to a topic id, creating topics whose
// name is not yet present in the graph. Records with an empty name are
// skipped. The returned map covers every non-empty input name. Existing
// topics keep their description.
func (s *GraphScope) UpsertTopics(ctx context.Context, records []commands.TopicRecord) (map[string]valueobjects.TopicID, error) {
	nameToID := make(map[string]valueobjects.TopicID, len(records))
	for _, rec := range records {
		name := entities.NormalizeTopicName(rec.Name)
		if name == "" {
			s.logger.Warn("Skipped topic with empty name", zap.String("graph_id", s.graphID.String()))
			continue
		}
		id, err := s.ensureTopic(ctx, name, rec.Description)
		if err != nil {
			return nil, err
		}
		nameToID[name] = id
	}
	return nameToID, nil
}

// UpsertEdges creates an edge for every pair whose endpoints both appear in
// nameToID and that does not exist yet. Unresolved pairs are skipped and
// recorded. It returns the number of edges created by this call.
func (s *GraphScope) UpsertEdges(ctx context.Context, pairs []commands.ConnectionRecord, nameToID map[string]valueobjects.TopicID) (int, error) {
	created := 0
	for _, p := range pairs {
		from := entities.NormalizeTopicName(p.FromTopic)
		to := entities.NormalizeTopicName(p.ToTopic)

		fromID, okFrom := nameToID[from]
		toID, okTo := nameToID[to]
		switch {
		case from == "" || to == "":
			s.skip(p.FromTopic, p.ToTopic, commands.SkipEmptyName)
			continue
		case !okFrom:
			s.skip(from, to, commands.SkipUnresolvedFrom)
			continue
		case !okTo:
			s.skip(from, to, commands.SkipUnresolvedTo)
			continue
		}

		ok, err := s.ensureEdge(ctx, from, to, fromID, toID)
		if err != nil {
			return created, err
		}
		if ok {
			created++
		}
	}
	return created, nil
}

// BuildHierarchy ensures a topic for every prerequisite and every non-ROOT
// dependent, then an edge prerequisite -> dependent for every non-ROOT entry.
// It returns the name to id mapping of all touched topics.
func (s *GraphScope) BuildHierarchy(ctx context.Context, prereqs valueobjects.PrerequisiteMap) (map[string]valueobjects.TopicID, error) {
	entries := prereqs.Entries()
	nameToID := make(map[string]valueobjects.TopicID, len(entries)+1)

	for _, e := range entries {
		names := []string{e.Prerequisite}
		if !e.IsRoot() {
			names = append(names, e.Dependent)
		}
		for _, raw := range names {
			name := entities.NormalizeTopicName(raw)
			if name == "" {
				continue
			}
			if _, done := nameToID[name]; done {
				continue
			}
			id, err := s.ensureTopic(ctx, name, "")
			if err != nil {
				return nil, err
			}
			nameToID[name] = id
		}
	}

	for _, e := range entries {
		if e.IsRoot() {
			continue
		}
		from := entities.NormalizeTopicName(e.Prerequisite)
		to := entities.NormalizeTopicName(e.Dependent)
		if from == "" || to == "" {
			s.skip(e.Prerequisite, e.Dependent, commands.SkipEmptyName)
			continue
		}
		if _, err := s.ensureEdge(ctx, from, to, nameToID[from], nameToID[to]); err != nil {
			return nil, err
		}
	}
	return nameToID, nil
}

func (s *GraphScope) ensureTopic(ctx context.Context, name, description string) (valueobjects.TopicID, error) {
	if id, ok := s.known[name]; ok {
		return id, nil
	}
	if err := entities.ValidateTopicName(name, s.cfg.MaxTopicNameLength); err != nil {
		return "", err
	}

	existing, err := s.tx.TopicByName(ctx, s.graphID, name)
	switch {
	case err == nil:
		s.known[name] = existing.ID
		return existing.ID, nil
	case !errors.Is(err, entities.ErrTopicNotFound):
		return "", fmt.Errorf("look up topic %q: %w", name, err)
	}

	topic, err := entities.NewTopic(s.graphID, name, description)
	if err != nil {
		return "", err
	}
	inserted, err := s.tx.InsertTopic(ctx, topic)
	if err != nil {
		return "", fmt.Errorf("insert topic %q: %w", name, err)
	}
	if inserted {
		s.created++
		s.known[name] = topic.ID
		return topic.ID, nil
	}

	// another writer claimed the name between our read and insert
	winner, err := s.tx.TopicByName(ctx, s.graphID, name)
	if err != nil {
		return "", fmt.Errorf("re-read topic %q after concurrent insert: %w", name, err)
	}
	s.logger.Debug("Recovered concurrent topic insert",
		zap.String("graph_id", s.graphID.String()),
		zap.String("topic", name),
	)
	s.known[name] = winner.ID
	return winner.ID, nil
}

func (s *GraphScope) ensureEdge(ctx context.Context, fromName, toName string, from, to valueobjects.TopicID) (bool, error) {
	if from == to && !s.cfg.AllowSelfConnections {
		s.skip(fromName, toName, commands.SkipSelfLoop)
		return false, nil
	}
	key := entities.EdgeKey(from, to)
	if _, seen := s.pairs[key]; seen {
		return false, nil
	}

	inserted, err := s.tx.InsertEdge(ctx, entities.NewEdge(s.graphID, from, to))
	if err != nil {
		return false, fmt.Errorf("insert edge %q -> %q: %w", fromName, toName, err)
	}
	s.pairs[key] = struct{}{}
	if inserted {
		s.edges++
	}
	return inserted, nil
}

func (s *GraphScope) skip(from, to, reason string) {
	s.skipped = append(s.skipped, commands.SkippedConnection{FromTopic: from, ToTopic: to, Reason: reason})
	s.logger.Warn("Skipped connection during ingestion",
		zap.String("graph_id", s.graphID.String()),
		zap.String("from_topic", from),
		zap.String("to_topic", to),
		zap.String("reason", reason),
	)
}
