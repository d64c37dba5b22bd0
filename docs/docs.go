// Package docs registers the OpenAPI description served under /swagger.
// It mirrors the handler annotations; `swag init -g cmd/server/main.go`
// regenerates it.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/ws": {
            "get": {
                "description": "Upgrade to an anonymous chat connection. No identity is required; participants name themselves with the join event.",
                "tags": ["websocket"],
                "summary": "WebSocket connection",
                "responses": {
                    "101": {"description": "Switching Protocols - WebSocket connection established"},
                    "400": {"description": "Bad request - not a WebSocket handshake", "schema": {"type": "object", "additionalProperties": true}},
                    "429": {"description": "Too many connection attempts", "schema": {"type": "object", "additionalProperties": true}}
                }
            }
        },
        "/rooms": {
            "get": {
                "description": "Every room with its member and message counts, sorted by id",
                "produces": ["application/json"],
                "tags": ["rooms"],
                "summary": "List rooms",
                "responses": {
                    "200": {"description": "Rooms and total", "schema": {"type": "object", "additionalProperties": true}}
                }
            }
        },
        "/rooms/{id}": {
            "get": {
                "description": "One room's counts and its last ten messages",
                "produces": ["application/json"],
                "tags": ["rooms"],
                "summary": "Get room stats",
                "parameters": [
                    {"type": "string", "description": "Room ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "Room stats", "schema": {"$ref": "#/definitions/chat.RoomStats"}},
                    "404": {"description": "Room not found", "schema": {"type": "object", "additionalProperties": true}}
                }
            }
        },
        "/metrics": {
            "get": {
                "description": "Aggregated fan-out, connection and crisis alert counters plus the most recent samples",
                "produces": ["application/json"],
                "tags": ["monitoring"],
                "summary": "Hub metrics",
                "responses": {
                    "200": {"description": "Metrics", "schema": {"type": "object", "additionalProperties": true}}
                }
            }
        },
        "/crisis/incidents": {
            "get": {
                "description": "Most recent stored crisis incidents, newest first. Only the alert preview is stored.",
                "produces": ["application/json"],
                "tags": ["monitoring"],
                "summary": "List crisis incidents",
                "parameters": [
                    {"type": "integer", "description": "Maximum incidents to return (1-100, default 20)", "name": "limit", "in": "query"},
                    {"type": "string", "description": "Also report the stored incident count for this room", "name": "room", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "Incidents", "schema": {"type": "object", "additionalProperties": true}},
                    "400": {"description": "Invalid limit", "schema": {"type": "object", "additionalProperties": true}},
                    "503": {"description": "Incident store unavailable", "schema": {"type": "object", "additionalProperties": true}}
                }
            }
        }
    },
    "definitions": {
        "chat.Message": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "content": {"type": "string"},
                "senderId": {"type": "string"},
                "room": {"type": "string"},
                "mood": {"type": "string"},
                "timestamp": {"type": "string"}
            }
        },
        "chat.RoomStats": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "activeUsers": {"type": "integer"},
                "messageCount": {"type": "integer"},
                "createdAt": {"type": "string"},
                "default": {"type": "boolean"},
                "recentActivity": {"type": "array", "items": {"$ref": "#/definitions/chat.Message"}}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "SafeSpace Anonymous Chat API",
	Description:      "Monitoring endpoints and the WebSocket entry point of the anonymous chat engine.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
