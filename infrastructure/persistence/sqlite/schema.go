package sqlite

const schema = `
CREATE TABLE IF NOT EXISTS users (
  id            TEXT PRIMARY KEY,
  username      TEXT NOT NULL UNIQUE,
  email         TEXT NOT NULL UNIQUE,
  password_hash TEXT NOT NULL,
  created_at    TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS knowledge_graphs (
  id         TEXT PRIMARY KEY,
  owner_id   TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
  name       TEXT NOT NULL,
  created_at TEXT NOT NULL,
  updated_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_knowledge_graphs_owner ON knowledge_graphs (owner_id, created_at);

CREATE TABLE IF NOT EXISTS topics (
  id          TEXT PRIMARY KEY,
  graph_id    TEXT NOT NULL REFERENCES knowledge_graphs(id) ON DELETE CASCADE,
  name        TEXT NOT NULL CHECK (length(name) <= 100),
  description TEXT NOT NULL DEFAULT '',
  created_at  TEXT NOT NULL,
  UNIQUE (graph_id, name)
);

CREATE TABLE IF NOT EXISTS topic_connections (
  id            TEXT PRIMARY KEY,
  graph_id      TEXT NOT NULL REFERENCES knowledge_graphs(id) ON DELETE CASCADE,
  from_topic_id TEXT NOT NULL REFERENCES topics(id) ON DELETE CASCADE,
  to_topic_id   TEXT NOT NULL REFERENCES topics(id) ON DELETE CASCADE,
  created_at    TEXT NOT NULL,
  UNIQUE (graph_id, from_topic_id, to_topic_id)
);

CREATE TABLE IF NOT EXISTS uploads (
  id           TEXT PRIMARY KEY,
  owner_id     TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
  graph_id     TEXT REFERENCES knowledge_graphs(id) ON DELETE CASCADE,
  title        TEXT NOT NULL,
  file_path    TEXT NOT NULL,
  content_type TEXT NOT NULL,
  body_text    TEXT NOT NULL,
  uploaded_at  TEXT NOT NULL
);
`
