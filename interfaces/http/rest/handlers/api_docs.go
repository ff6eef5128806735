package handlers

// OpenAPI annotations for the /api/v1 handlers. Regenerate the docs package
// with `swag init -g cmd/api/main.go -o docs --parseInternal`.

// Register creates an account
// @Summary Register an account
// @Description Creates a user and returns an access token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body commands.RegisterUserCommand true "Account details"
// @Success 201 {object} commands.AuthResult
// @Failure 400 {object} errors.ErrorResponse "Invalid input"
// @Failure 409 {object} errors.ErrorResponse "Username or email taken"
// @Failure 429 {object} errors.ErrorResponse "Too many attempts"
// @Router /auth/register [post]

// Login exchanges credentials for a token
// @Summary Log in
// @Tags auth
// @Accept json
// @Produce json
// @Param request body commands.LoginCommand true "Credentials"
// @Success 200 {object} commands.AuthResult
// @Failure 401 {object} errors.ErrorResponse "Invalid credentials"
// @Router /auth/login [post]

// Me returns the caller's account
// @Summary Current user
// @Tags auth
// @Produce json
// @Success 200 {object} entities.User
// @Failure 401 {object} errors.ErrorResponse
// @Security BearerAuth
// @Router /auth/me [get]

// CreateGraph creates an empty graph or seeds one from an upload
// @Summary Create a graph
// @Description With upload_id the upload's text is turned into topics. The graph is only kept when that ingestion succeeds.
// @Tags graphs
// @Accept json
// @Produce json
// @Param request body commands.CreateGraphCommand true "Graph name and optional upload"
// @Success 201 {object} services.CreateGraphResult
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse "Upload not found"
// @Failure 409 {object} errors.ErrorResponse "Upload already seeded a graph"
// @Security BearerAuth
// @Router /graphs [post]

// ListGraphs lists the caller's graphs
// @Summary List graphs
// @Tags graphs
// @Produce json
// @Success 200 {object} GraphListResponse
// @Security BearerAuth
// @Router /graphs [get]

// GetGraph returns a graph with its topics and edges
// @Summary Get a graph
// @Tags graphs
// @Produce json
// @Param graphID path string true "Graph ID" format(uuid)
// @Success 200 {object} queries.GraphSnapshotResult
// @Failure 404 {object} errors.ErrorResponse
// @Security BearerAuth
// @Router /graphs/{graphID} [get]

// DeleteGraph removes a graph
// @Summary Delete a graph
// @Description Removes the graph with its topics, edges and uploads
// @Tags graphs
// @Param graphID path string true "Graph ID" format(uuid)
// @Success 204
// @Failure 404 {object} errors.ErrorResponse
// @Security BearerAuth
// @Router /graphs/{graphID} [delete]

// Import upserts topics and connections
// @Summary Import topics and connections
// @Description Topics are matched by exact name. Connections whose endpoints are not in the request are skipped and reported.
// @Tags graphs
// @Accept json
// @Produce json
// @Param graphID path string true "Graph ID" format(uuid)
// @Param request body commands.ImportTopicsCommand true "Topics and connections"
// @Success 200 {object} commands.IngestionResult
// @Failure 400 {object} errors.ErrorResponse "Invalid input or too many topics"
// @Failure 404 {object} errors.ErrorResponse
// @Failure 503 {object} errors.ErrorResponse "Graph busy"
// @Security BearerAuth
// @Router /graphs/{graphID}/import [post]

// Hierarchy applies a prerequisite map
// @Summary Apply a prerequisite hierarchy
// @Description The body maps each prerequisite to its dependent, or to ROOT for the final topic
// @Tags graphs
// @Accept json
// @Produce json
// @Param graphID path string true "Graph ID" format(uuid)
// @Param request body object true "Prerequisite map" example({"Algebra":"Calculus","Calculus":"ROOT"})
// @Success 200 {object} commands.HierarchyResult
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Security BearerAuth
// @Router /graphs/{graphID}/hierarchy [post]

// ListNodes lists a graph's topics
// @Summary List topics
// @Tags topics
// @Produce json
// @Param graphID path string true "Graph ID" format(uuid)
// @Success 200 {object} map[string][]queries.TopicDTO
// @Failure 404 {object} errors.ErrorResponse
// @Security BearerAuth
// @Router /graphs/{graphID}/nodes [get]

// GetNode returns one topic with its neighbours
// @Summary Get a topic
// @Tags topics
// @Produce json
// @Param graphID path string true "Graph ID" format(uuid)
// @Param topicID path string true "Topic ID" format(uuid)
// @Success 200 {object} queries.TopicDetailResult
// @Failure 404 {object} errors.ErrorResponse
// @Security BearerAuth
// @Router /graphs/{graphID}/nodes/{topicID} [get]

// Explain asks the tutor about a topic
// @Summary Explain a topic
// @Tags learning
// @Accept json
// @Produce json
// @Param graphID path string true "Graph ID" format(uuid)
// @Param topicID path string true "Topic ID" format(uuid)
// @Param request body commands.ExplainTopicCommand false "Optional question"
// @Success 200 {object} services.Explanation
// @Failure 404 {object} errors.ErrorResponse
// @Failure 503 {object} errors.ErrorResponse "Model unavailable"
// @Security BearerAuth
// @Router /graphs/{graphID}/nodes/{topicID}/explain [post]

// ListEdges lists a graph's prerequisite edges
// @Summary List edges
// @Tags topics
// @Produce json
// @Param graphID path string true "Graph ID" format(uuid)
// @Success 200 {object} map[string][]queries.EdgeDTO
// @Failure 404 {object} errors.ErrorResponse
// @Security BearerAuth
// @Router /graphs/{graphID}/edges [get]

// GetRoadmap finds every learning path between two topics
// @Summary Find learning paths
// @Description Paths follow prerequisite edges from start to target and are listed in discovery order
// @Tags roadmap
// @Produce json
// @Param graphID path string true "Graph ID" format(uuid)
// @Param start query string true "Topic to start from"
// @Param target query string true "Topic to reach"
// @Success 200 {object} queries.RoadmapResult
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse "Graph or topic not found"
// @Security BearerAuth
// @Router /graphs/{graphID}/roadmap [get]

// Decompose builds a graph from a model decomposition
// @Summary Decompose a topic
// @Description Asks the model for the prerequisites of a topic and stores them as a new graph
// @Tags learning
// @Accept json
// @Produce json
// @Param request body commands.DecomposeTopicCommand true "Topic to decompose"
// @Success 201 {object} services.DecomposeResult
// @Failure 400 {object} errors.ErrorResponse
// @Failure 503 {object} errors.ErrorResponse "Model unavailable"
// @Security BearerAuth
// @Router /decompose [post]

// Upload stores a document
// @Summary Upload a document
// @Description Accepts PDF, HTML, Markdown and plain text in the multipart "file" field
// @Tags uploads
// @Accept mpfd
// @Produce json
// @Param file formData file true "Document"
// @Success 201 {object} entities.Upload
// @Failure 400 {object} errors.ErrorResponse "Unreadable or too large"
// @Security BearerAuth
// @Router /uploads [post]

// GetUpload returns an upload with its extracted text
// @Summary Get an upload
// @Tags uploads
// @Produce json
// @Param uploadID path string true "Upload ID" format(uuid)
// @Success 200 {object} entities.Upload
// @Failure 404 {object} errors.ErrorResponse
// @Security BearerAuth
// @Router /uploads/{uploadID} [get]
