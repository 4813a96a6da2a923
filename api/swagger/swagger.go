package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Camp Autoscheduler API",
        "description": "Computes, versions, compares and applies camp program schedules.",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "security": [
        {"BearerAuth": []}
    ],
    "tags": [
        {"name": "Autoschedule", "description": "Schedule calculation, versions and apply"},
        {"name": "Operations", "description": "Health, readiness and metrics"}
    ],
    "paths": {
        "/health": {
            "get": {
                "tags": ["Operations"],
                "summary": "Liveness check",
                "security": [],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/ready": {
            "get": {
                "tags": ["Operations"],
                "summary": "Readiness check of PostgreSQL and Redis",
                "security": [],
                "responses": {
                    "200": {"description": "Ready"},
                    "503": {"description": "A dependency is unreachable"}
                }
            }
        },
        "/camps/{campId}/autoschedule": {
            "get": {
                "tags": ["Autoschedule"],
                "summary": "List schedule versions of a camp",
                "parameters": [
                    {"name": "campId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/camps/{campId}/autoschedule/calculate": {
            "post": {
                "tags": ["Autoschedule"],
                "summary": "Calculate a fresh camp schedule",
                "parameters": [
                    {"name": "campId", "in": "path", "required": true, "type": "string"},
                    {"name": "async", "in": "query", "type": "boolean"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CalculateAutoScheduleRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "202": {"description": "Queued", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Queue full", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/camps/{campId}/autoschedule/recalculate": {
            "post": {
                "tags": ["Autoschedule"],
                "summary": "Recalculate with minimal changes against a previous version",
                "parameters": [
                    {"name": "campId", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "schema": {"$ref": "#/definitions/RecalculateAutoScheduleRequest"}}
                ],
                "responses": {
                    "200": {"description": "Updated in place", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "No base version", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Base version is read-only", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/autoschedule/{id}": {
            "get": {
                "tags": ["Autoschedule"],
                "summary": "Get a schedule version with its placements",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Autoschedule"],
                "summary": "Delete a draft schedule version",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "Deleted"},
                    "409": {"description": "Applied versions are read-only", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/autoschedule/{id}/diff/{otherId}": {
            "get": {
                "tags": ["Autoschedule"],
                "summary": "Compare two schedule versions",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "otherId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/autoschedule/{id}/apply": {
            "post": {
                "tags": ["Autoschedule"],
                "summary": "Apply a schedule version to the camp program",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Applied", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Already applied", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/autoschedule/{id}/export": {
            "get": {
                "tags": ["Autoschedule"],
                "summary": "Export a schedule version",
                "produces": ["text/csv", "application/pdf"],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "File", "schema": {"type": "file"}}
                }
            }
        }
    },
    "definitions": {
        "CalculateAutoScheduleRequest": {
            "type": "object",
            "required": ["eventTypes"],
            "properties": {
                "eventTypes": {"type": "array", "items": {"type": "string"}},
                "solver": {"type": "string", "enum": ["exact", "greedy"]}
            }
        },
        "RecalculateAutoScheduleRequest": {
            "type": "object",
            "properties": {
                "baseId": {"type": "string"},
                "solver": {"type": "string", "enum": ["exact", "greedy"]},
                "inPlace": {"type": "boolean"}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "pagination": {"$ref": "#/definitions/Pagination"},
                "meta": {"type": "object"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
