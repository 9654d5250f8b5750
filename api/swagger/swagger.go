package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Drive Backup API",
        "description": "Capacity-aware batch admission and pool rotation for suspended-user drive backups",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Cycles", "description": "Backup cycle orchestration"},
        {"name": "Pools", "description": "Shared storage pool registry"}
    ],
    "paths": {
        "/cycles": {
            "post": {
                "tags": ["Cycles"],
                "summary": "Run one backup cycle",
                "responses": {
                    "200": {"description": "Cycle outcome", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "A cycle is already running", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/cycles/last": {
            "get": {
                "tags": ["Cycles"],
                "summary": "Most recent cycle outcome",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "No cycle has run yet"}
                }
            }
        },
        "/cycles/last/report": {
            "get": {
                "tags": ["Cycles"],
                "summary": "Download the most recent cycle report",
                "parameters": [
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"], "default": "csv"}
                ],
                "responses": {
                    "200": {"description": "Report file"},
                    "404": {"description": "No cycle has run yet"}
                }
            }
        },
        "/pools": {
            "get": {
                "tags": ["Pools"],
                "summary": "List pool registry records",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/projection": {
            "get": {
                "tags": ["Pools"],
                "summary": "Project active pool occupancy without running a cycle",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "502": {"description": "Pool inventory unreachable"}
                }
            }
        }
    },
    "definitions": {
        "CycleResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "status": {"type": "string", "enum": ["COMPLETED", "FAILED"]},
                "startedAt": {"type": "string"},
                "finishedAt": {"type": "string"},
                "activePool": {"type": "string"},
                "rotation": {"$ref": "#/definitions/RotationResponse"},
                "projection": {"$ref": "#/definitions/ProjectionBody"},
                "admitted": {"type": "integer"},
                "admittedEmails": {"type": "array", "items": {"type": "string"}},
                "totalMinutes": {"type": "integer"},
                "deferred": {"type": "integer"},
                "manualTrack": {"type": "integer"},
                "droppedRows": {"type": "integer"},
                "copyDispatched": {"type": "integer"},
                "copyFailures": {"type": "integer"},
                "error": {"type": "string"}
            }
        },
        "RotationResponse": {
            "type": "object",
            "properties": {
                "fired": {"type": "boolean"},
                "adopted": {"type": "boolean"},
                "newName": {"type": "string"},
                "newId": {"type": "string"},
                "threshold": {"type": "number"}
            }
        },
        "ProjectionBody": {
            "type": "object",
            "properties": {
                "currentItems": {"type": "integer"},
                "currentFolders": {"type": "integer"},
                "projectedItems": {"type": "integer"},
                "projectedFolders": {"type": "integer"},
                "itemPercent": {"type": "number", "description": "-1 when the measurement failed"},
                "folderPercent": {"type": "number", "description": "-1 when the measurement failed"}
            }
        },
        "PoolResponse": {
            "type": "object",
            "properties": {
                "driveName": {"type": "string"},
                "driveId": {"type": "string"},
                "isFull": {"type": "boolean"},
                "lastUpdated": {"type": "string"}
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
