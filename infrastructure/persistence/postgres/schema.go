package postgres

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id            UUID PRIMARY KEY,
	username      VARCHAR(50) NOT NULL UNIQUE,
	email         VARCHAR(255) NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS knowledge_graphs (
	id         UUID PRIMARY KEY,
	owner_id   UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	name       VARCHAR(255) NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_knowledge_graphs_owner ON knowledge_graphs (owner_id, created_at DESC);

CREATE TABLE IF NOT EXISTS topics (
	seq         BIGINT GENERATED ALWAYS AS IDENTITY,
	id          UUID PRIMARY KEY,
	graph_id    UUID NOT NULL REFERENCES knowledge_graphs(id) ON DELETE CASCADE,
	name        VARCHAR(100) NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (graph_id, name)
);

CREATE TABLE IF NOT EXISTS topic_connections (
	seq           BIGINT GENERATED ALWAYS AS IDENTITY,
	id            UUID PRIMARY KEY,
	graph_id      UUID NOT NULL REFERENCES knowledge_graphs(id) ON DELETE CASCADE,
	from_topic_id UUID NOT NULL REFERENCES topics(id) ON DELETE CASCADE,
	to_topic_id   UUID NOT NULL REFERENCES topics(id) ON DELETE CASCADE,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (graph_id, from_topic_id, to_topic_id)
);
CREATE INDEX IF NOT EXISTS idx_topic_connections_graph_seq ON topic_connections (graph_id, seq);

CREATE TABLE IF NOT EXISTS uploads (
	id           UUID PRIMARY KEY,
	owner_id     UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	graph_id     UUID REFERENCES knowledge_graphs(id) ON DELETE CASCADE,
	title        VARCHAR(255) NOT NULL,
	file_path    TEXT NOT NULL,
	content_type VARCHAR(100) NOT NULL,
	body_text    TEXT NOT NULL,
	uploaded_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);
`
