package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Tree Status API",
        "description": "Open/closed state of source trees, their history and revertible bulk changes",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": [
        "http",
        "https"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Trees", "description": "Tracked trees and their status history"},
        {"name": "Stack", "description": "Remembered bulk status changes"},
        {"name": "Dockerflow", "description": "Operational endpoints"}
    ],
    "paths": {
        "/trees": {
            "get": {
                "tags": ["Trees"],
                "summary": "List trees",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "patch": {
                "tags": ["Trees"],
                "summary": "Update several trees",
                "description": "Sets status and/or message of the day. With remember=true the change is recorded as a revertible stack.",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateTreesRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Unknown tree", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/trees/{tree}": {
            "get": {
                "tags": ["Trees"],
                "summary": "Get a tree",
                "parameters": [
                    {"name": "tree", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["Trees"],
                "summary": "Start tracking a tree",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "tree", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": false, "schema": {"$ref": "#/definitions/CreateTreeRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Already tracked", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Trees"],
                "summary": "Stop tracking a tree",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "tree", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "Deleted"},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/trees/{tree}/logs": {
            "get": {
                "tags": ["Trees"],
                "summary": "List the status history of a tree",
                "parameters": [
                    {"name": "tree", "in": "path", "required": true, "type": "string"},
                    {"name": "all", "in": "query", "type": "boolean"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/stack": {
            "get": {
                "tags": ["Stack"],
                "summary": "List remembered status changes",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/stack/{id}": {
            "get": {
                "tags": ["Stack"],
                "summary": "Get a remembered status change",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["Stack"],
                "summary": "Revert a remembered status change",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Stack"],
                "summary": "Forget a remembered status change without reverting it",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "204": {"description": "Discarded"},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/__heartbeat__": {
            "get": {
                "tags": ["Dockerflow"],
                "summary": "Check cache and database health",
                "responses": {
                    "200": {"description": "OK"},
                    "503": {"description": "Degraded", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/__lbheartbeat__": {
            "get": {
                "tags": ["Dockerflow"],
                "summary": "Load balancer liveness",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/__version__": {
            "get": {
                "tags": ["Dockerflow"],
                "summary": "Report the deployed build",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/VersionResponse"}}
                }
            }
        }
    },
    "definitions": {
        "Tree": {
            "type": "object",
            "properties": {
                "tree": {"type": "string"},
                "status": {"type": "string", "enum": ["open", "closed", "approval required"]},
                "reason": {"type": "string"},
                "message_of_the_day": {"type": "string"}
            }
        },
        "Log": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "tree": {"type": "string"},
                "when": {"type": "string", "format": "date-time"},
                "who": {"type": "string"},
                "status": {"type": "string"},
                "reason": {"type": "string"},
                "tags": {"type": "array", "items": {"type": "string"}}
            }
        },
        "LastState": {
            "type": "object",
            "properties": {
                "status": {"type": "string"},
                "reason": {"type": "string"},
                "tags": {"type": "array", "items": {"type": "string"}},
                "log_id": {"type": "integer"},
                "current_status": {"type": "string"},
                "current_reason": {"type": "string"},
                "current_tags": {"type": "array", "items": {"type": "string"}},
                "current_log_id": {"type": "integer"}
            }
        },
        "StatusChangeTree": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "tree": {"type": "string"},
                "last_state": {"$ref": "#/definitions/LastState"}
            }
        },
        "StatusChange": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "who": {"type": "string"},
                "reason": {"type": "string"},
                "when": {"type": "string", "format": "date-time"},
                "status": {"type": "string"},
                "trees": {"type": "array", "items": {"$ref": "#/definitions/StatusChangeTree"}}
            }
        },
        "CreateTreeRequest": {
            "type": "object",
            "properties": {
                "status": {"type": "string"},
                "reason": {"type": "string"},
                "message_of_the_day": {"type": "string"}
            }
        },
        "UpdateTreesRequest": {
            "type": "object",
            "required": ["trees"],
            "properties": {
                "trees": {"type": "array", "items": {"type": "string"}},
                "status": {"type": "string"},
                "reason": {"type": "string"},
                "tags": {"type": "array", "items": {"type": "string"}},
                "message_of_the_day": {"type": "string"},
                "remember": {"type": "boolean"}
            }
        },
        "VersionResponse": {
            "type": "object",
            "properties": {
                "source": {"type": "string"},
                "version": {"type": "string"},
                "commit": {"type": "string"},
                "build": {"type": "string"}
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
