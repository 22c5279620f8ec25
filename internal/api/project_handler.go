package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/cutline/cutline-studio/internal/library"
)

// newProjectHandler resets the editing session. A project row is created
// only when a name is given.
func newProjectHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ProjectRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		var project *ProjectResponse
		if strings.TrimSpace(req.Name) != "" {
			p, err := cfg.Projects.CreateProject(r.Context(), req.Name, req.Description)
			if err != nil {
				writeServiceError(w, cfg, err, "failed to create project")
				return
			}
			resp := ProjectToResponse(p)
			project = &resp
		}

		cfg.Session.NewProject()
		WriteJSON(w, http.StatusOK, NewProjectResponse{Project: project, State: cfg.Session.View()})
	}
}

func listProjectsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projects, err := cfg.Projects.ListProjects(r.Context())
		if err != nil {
			writeServiceError(w, cfg, err, "failed to list projects")
			return
		}
		resp := ProjectsResponse{Projects: make([]ProjectResponse, 0, len(projects))}
		for _, p := range projects {
			resp.Projects = append(resp.Projects, ProjectToResponse(p))
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func createProjectHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ProjectRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		p, err := cfg.Projects.CreateProject(r.Context(), req.Name, req.Description)
		if err != nil {
			writeServiceError(w, cfg, err, "failed to create project")
			return
		}
		WriteJSON(w, http.StatusCreated, ProjectToResponse(p))
	}
}

func updateProjectHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ProjectUpdateRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		p, err := cfg.Projects.UpdateProject(r.Context(), chi.URLParam(r, "id"), library.ProjectUpdate{
			Name:        req.Name,
			Description: req.Description,
		})
		if err != nil {
			writeServiceError(w, cfg, err, "project")
			return
		}
		WriteJSON(w, http.StatusOK, ProjectToResponse(p))
	}
}
