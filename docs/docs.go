package docs

import "github.com/swaggo/swag"

const docTemplate = `{
  "swagger": "2.0",
  "info": {
    "title": "Transit Complaints Backend",
    "description": "Passenger complaint intake with AI prioritization",
    "version": "1.0"
  },
  "basePath": "/",
  "paths": {
    "/healthz": {"get": {"tags": ["health"], "summary": "Health check"}},
    "/api/complaints": {
      "get": {"tags": ["complaints"], "summary": "List complaints"},
      "post": {"tags": ["complaints"], "summary": "Submit a complaint"}
    },
    "/api/complaints/{id}": {"get": {"tags": ["complaints"], "summary": "Complaint details"}},
    "/api/complaints/{id}/prioritize": {"post": {"tags": ["complaints"], "summary": "Re-run AI prioritization"}},
    "/api/complaints/{id}/status": {"patch": {"tags": ["complaints"], "summary": "Change complaint status"}},
    "/api/settings/{key}": {
      "get": {"tags": ["settings"], "summary": "Read a setting"},
      "put": {"tags": ["settings"], "summary": "Toggle a setting"}
    }
  }
}`

func init() {
	swag.Register(swag.Name, &s{})
}

type s struct{}

func (s *s) ReadDoc() string {
	return docTemplate
}
