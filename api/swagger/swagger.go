package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "PC Discussion Scheduler API",
        "description": "Allocates PC meeting papers to discussion windows from reviewer availability",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Schedules", "description": "Allocator runs"},
        {"name": "Exports", "description": "Rendered schedule artifacts"},
        {"name": "Ops", "description": "Health and metrics"}
    ],
    "paths": {
        "/health": {
            "get": {
                "tags": ["Ops"],
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/ready": {
            "get": {
                "tags": ["Ops"],
                "summary": "Readiness check",
                "responses": {
                    "200": {"description": "Ready"},
                    "503": {"description": "A backing store is unreachable"}
                }
            }
        },
        "/metrics": {
            "get": {
                "tags": ["Ops"],
                "summary": "Prometheus metrics",
                "produces": ["text/plain"],
                "responses": {
                    "200": {"description": "Metrics in exposition format"}
                }
            }
        },
        "/api/v1/schedules/runs": {
            "post": {
                "tags": ["Schedules"],
                "summary": "Run the allocator",
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/GenerateScheduleRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ScheduleRunEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Tables could not be normalised", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "get": {
                "tags": ["Schedules"],
                "summary": "List runs, newest first",
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "parameters": [
                    {"in": "query", "name": "status", "type": "string", "enum": ["COMPLETE", "PARTIAL"]},
                    {"in": "query", "name": "page", "type": "integer"},
                    {"in": "query", "name": "page_size", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/schedules/runs/{id}": {
            "get": {
                "tags": ["Schedules"],
                "summary": "Get a run",
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "parameters": [
                    {"in": "path", "name": "id", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ScheduleRunEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/schedules/runs/{id}/export": {
            "get": {
                "tags": ["Exports"],
                "summary": "Download a run synchronously",
                "security": [{"BearerAuth": []}],
                "produces": ["text/csv", "application/pdf", "application/yaml"],
                "parameters": [
                    {"in": "path", "name": "id", "required": true, "type": "string"},
                    {"in": "query", "name": "format", "type": "string", "enum": ["csv", "pdf", "yaml"]},
                    {"in": "query", "name": "detail", "type": "boolean"}
                ],
                "responses": {
                    "200": {"description": "Rendered schedule", "schema": {"type": "file"}},
                    "400": {"description": "Unsupported format", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/schedules/runs/{id}/exports": {
            "post": {
                "tags": ["Exports"],
                "summary": "Queue an export job",
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"in": "path", "name": "id", "required": true, "type": "string"},
                    {"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/ExportRequest"}}
                ],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/ExportJobEnvelope"}},
                    "404": {"description": "Run not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/export-jobs/{id}": {
            "get": {
                "tags": ["Exports"],
                "summary": "Export job status",
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "parameters": [
                    {"in": "path", "name": "id", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ExportJobEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/exports/{token}": {
            "get": {
                "tags": ["Exports"],
                "summary": "Download a stored export via signed token",
                "produces": ["text/csv", "application/pdf", "application/yaml"],
                "parameters": [
                    {"in": "path", "name": "token", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Rendered schedule", "schema": {"type": "file"}},
                    "403": {"description": "Invalid or expired token", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Artifact expired", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "AvailabilityRow": {
            "type": "object",
            "required": ["email", "slots"],
            "properties": {
                "email": {"type": "string"},
                "slots": {"type": "array", "items": {"type": "string"}, "description": "Slot i+1 cell: empty or OK, (OK), 0"}
            }
        },
        "AssignmentRow": {
            "type": "object",
            "required": ["paperId", "email"],
            "properties": {
                "paperId": {"type": "integer"},
                "email": {"type": "string"},
                "action": {"type": "string"}
            }
        },
        "ConflictRow": {
            "type": "object",
            "required": ["paperId", "email"],
            "properties": {
                "paperId": {"type": "integer"},
                "email": {"type": "string"}
            }
        },
        "PaperRow": {
            "type": "object",
            "required": ["id"],
            "properties": {
                "id": {"type": "integer"},
                "title": {"type": "string"}
            }
        },
        "GenerateScheduleRequest": {
            "type": "object",
            "required": ["availability", "assignments"],
            "properties": {
                "label": {"type": "string"},
                "availability": {"type": "array", "items": {"$ref": "#/definitions/AvailabilityRow"}},
                "assignments": {"type": "array", "items": {"$ref": "#/definitions/AssignmentRow"}},
                "conflicts": {"type": "array", "items": {"$ref": "#/definitions/ConflictRow"}},
                "papers": {"type": "array", "items": {"$ref": "#/definitions/PaperRow"}},
                "capacity": {"type": "integer", "minimum": 2}
            }
        },
        "Placement": {
            "type": "object",
            "properties": {
                "sequence": {"type": "integer"},
                "slot": {"type": "integer"},
                "position": {"type": "integer"},
                "paperId": {"type": "integer"},
                "hash": {"type": "string"},
                "title": {"type": "string"},
                "score": {"type": "integer"},
                "threshold": {"type": "integer"},
                "phase": {"type": "integer"}
            }
        },
        "Notice": {
            "type": "object",
            "properties": {
                "slot": {"type": "integer"},
                "threshold": {"type": "integer"},
                "phase": {"type": "integer"}
            }
        },
        "ScheduleRun": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "label": {"type": "string"},
                "status": {"type": "string", "enum": ["COMPLETE", "PARTIAL"]},
                "settings": {
                    "type": "object",
                    "properties": {
                        "slotCount": {"type": "integer"},
                        "capacity": {"type": "integer"},
                        "thresholdFloor": {"type": "integer"},
                        "enforceCapacity": {"type": "boolean"}
                    }
                },
                "table": {
                    "type": "object",
                    "properties": {
                        "columns": {"type": "array", "items": {"type": "integer"}},
                        "cells": {"type": "array", "items": {"type": "array", "items": {"type": "integer"}}}
                    }
                },
                "placements": {"type": "array", "items": {"$ref": "#/definitions/Placement"}},
                "unscheduled": {"type": "array", "items": {"type": "object"}},
                "notices": {"type": "array", "items": {"$ref": "#/definitions/Notice"}},
                "thresholdsVisited": {"type": "integer"},
                "report": {"type": "object"},
                "createdBy": {"type": "string"},
                "createdAt": {"type": "string", "format": "date-time"}
            }
        },
        "ExportRequest": {
            "type": "object",
            "required": ["format"],
            "properties": {
                "format": {"type": "string", "enum": ["csv", "pdf", "yaml"]},
                "detail": {"type": "boolean"}
            }
        },
        "ExportJob": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "runId": {"type": "string"},
                "format": {"type": "string"},
                "status": {"type": "string", "enum": ["QUEUED", "PROCESSING", "FINISHED", "FAILED"]},
                "resultUrl": {"type": "string"},
                "expiresAt": {"type": "string", "format": "date-time"},
                "error": {"type": "string"}
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
        },
        "ScheduleRunEnvelope": {
            "type": "object",
            "properties": {
                "data": {"$ref": "#/definitions/ScheduleRun"}
            }
        },
        "ExportJobEnvelope": {
            "type": "object",
            "properties": {
                "data": {"$ref": "#/definitions/ExportJob"}
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
