package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "schemes": {{ marshal .Schemes }},
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["auth"],
                "summary": "User login",
                "description": "Exchange email and password for a bearer token used by the backup endpoints",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/AuthResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/tasks": {
            "get": {
                "tags": ["tasks"],
                "summary": "List tasks",
                "produces": ["application/json"],
                "parameters": [
                    {"in": "query", "name": "date", "type": "string", "description": "Exact date (YYYY-MM-DD)"},
                    {"in": "query", "name": "from", "type": "string", "description": "First date, inclusive"},
                    {"in": "query", "name": "to", "type": "string", "description": "Last date, inclusive"},
                    {"in": "query", "name": "done", "type": "boolean"},
                    {"in": "query", "name": "category", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/Task"}}}
                }
            },
            "post": {
                "tags": ["tasks"],
                "summary": "Create a task",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/Task"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/Task"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            },
            "delete": {
                "tags": ["tasks"],
                "summary": "Delete every task on a date",
                "produces": ["application/json"],
                "parameters": [
                    {"in": "query", "name": "date", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/DeletedResponse"}}
                }
            }
        },
        "/tasks/watch": {
            "get": {
                "tags": ["tasks"],
                "summary": "Stream the filtered task list as server-sent events",
                "produces": ["text/event-stream"],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/tasks/{id}": {
            "get": {
                "tags": ["tasks"],
                "summary": "Get task by ID",
                "produces": ["application/json"],
                "parameters": [{"in": "path", "name": "id", "type": "string", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Task"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            },
            "put": {
                "tags": ["tasks"],
                "summary": "Replace a task",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"in": "path", "name": "id", "type": "string", "required": true},
                    {"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/Task"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Task"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            },
            "delete": {
                "tags": ["tasks"],
                "summary": "Delete a task",
                "parameters": [{"in": "path", "name": "id", "type": "string", "required": true}],
                "responses": {"204": {"description": "No Content"}}
            }
        },
        "/tasks/{id}/toggle": {
            "post": {
                "tags": ["tasks"],
                "summary": "Flip a task's done state",
                "produces": ["application/json"],
                "parameters": [{"in": "path", "name": "id", "type": "string", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/Task"}}}
            }
        },
        "/tasks/{id}/subtasks/{subtaskId}": {
            "put": {
                "tags": ["tasks"],
                "summary": "Mark a subtask done or not done",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"in": "path", "name": "id", "type": "string", "required": true},
                    {"in": "path", "name": "subtaskId", "type": "string", "required": true},
                    {"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/SetSubtaskRequest"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/Task"}}}
            }
        },
        "/day-templates": {
            "get": {
                "tags": ["day-templates"],
                "summary": "List day templates",
                "produces": ["application/json"],
                "parameters": [
                    {"in": "query", "name": "weekly", "type": "boolean"},
                    {"in": "query", "name": "weekday", "type": "integer", "description": "0 is Sunday"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/DayTemplate"}}}
                }
            },
            "post": {
                "tags": ["day-templates"],
                "summary": "Create a day template",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/DayTemplate"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/DayTemplate"}},
                    "409": {"description": "Weekday already taken", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/day-templates/{id}/apply": {
            "post": {
                "tags": ["day-templates"],
                "summary": "Expand a day template onto a date",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"in": "path", "name": "id", "type": "string", "required": true},
                    {"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/ApplyTemplateRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"type": "array", "items": {"$ref": "#/definitions/Task"}}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/weekly-templates/{weekday}": {
            "put": {
                "tags": ["day-templates"],
                "summary": "Set the weekly template of a weekday",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"in": "path", "name": "weekday", "type": "integer", "required": true},
                    {"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/DayTemplate"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/DayTemplate"}}}
            }
        },
        "/stats/monthly": {
            "get": {
                "tags": ["stats"],
                "summary": "Completion statistics of one month",
                "produces": ["application/json"],
                "parameters": [{"in": "query", "name": "month", "type": "string", "required": true, "description": "YYYY-MM"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/MonthlyStats"}}}
            }
        },
        "/settings": {
            "get": {
                "tags": ["settings"],
                "summary": "Current notification settings",
                "produces": ["application/json"],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/Settings"}}}
            },
            "put": {
                "tags": ["settings"],
                "summary": "Change notification settings",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/Settings"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/Settings"}}}
            }
        },
        "/backup/export": {
            "get": {
                "tags": ["backup"],
                "summary": "Download a backup document",
                "produces": ["application/json", "application/yaml"],
                "parameters": [{"in": "query", "name": "format", "type": "string", "enum": ["json", "yaml"]}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/backup/import": {
            "post": {
                "tags": ["backup"],
                "summary": "Load a backup document",
                "consumes": ["application/json", "application/yaml"],
                "produces": ["application/json"],
                "parameters": [
                    {"in": "query", "name": "format", "type": "string", "enum": ["json", "yaml"]},
                    {"in": "query", "name": "mode", "type": "string", "enum": ["merge", "replace"]}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/backup": {
            "post": {
                "tags": ["backup"],
                "summary": "Upload a backup for the signed-in account",
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/BackupResult"}}}
            }
        },
        "/backup/restore": {
            "post": {
                "tags": ["backup"],
                "summary": "Restore the signed-in account's backup",
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "parameters": [{"in": "query", "name": "mode", "type": "string", "enum": ["merge", "replace"]}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/BackupResult"}}}
            }
        }
    },
    "definitions": {
        "Subtask": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "title": {"type": "string"},
                "is_done": {"type": "boolean"}
            }
        },
        "Task": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "title": {"type": "string"},
                "description": {"type": "string"},
                "date": {"type": "string", "example": "2024-01-15"},
                "start_time": {"type": "string", "example": "08:00"},
                "end_time": {"type": "string", "example": "09:00"},
                "category": {"type": "string", "example": "WORK"},
                "is_done": {"type": "boolean"},
                "subtasks": {"type": "array", "items": {"$ref": "#/definitions/Subtask"}},
                "created_at": {"type": "string", "format": "date-time"},
                "updated_at": {"type": "string", "format": "date-time"}
            }
        },
        "TaskTemplate": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "day_template_id": {"type": "string"},
                "title": {"type": "string"},
                "description": {"type": "string"},
                "start_time": {"type": "string"},
                "end_time": {"type": "string"},
                "category": {"type": "string"},
                "subtasks": {"type": "array", "items": {"type": "string"}}
            }
        },
        "DayTemplate": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "name": {"type": "string"},
                "is_weekly": {"type": "boolean"},
                "weekday": {"type": "integer"},
                "tasks": {"type": "array", "items": {"$ref": "#/definitions/TaskTemplate"}}
            }
        },
        "MonthlyStats": {
            "type": "object",
            "properties": {
                "year": {"type": "integer"},
                "month": {"type": "integer"},
                "month_name": {"type": "string"},
                "total_tasks": {"type": "integer"},
                "completed_tasks": {"type": "integer"},
                "pending_tasks": {"type": "integer"},
                "empty": {"type": "boolean"}
            }
        },
        "Settings": {
            "type": "object",
            "properties": {
                "notifications_enabled": {"type": "boolean"},
                "notification_offset_minutes": {"type": "integer", "enum": [5, 10, 15, 20]}
            }
        },
        "BackupResult": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "message": {"type": "string"}
            }
        },
        "LoginRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "AuthResponse": {
            "type": "object",
            "properties": {
                "access_token": {"type": "string"},
                "token_type": {"type": "string"},
                "expires_at": {"type": "string", "format": "date-time"}
            }
        },
        "ApplyTemplateRequest": {
            "type": "object",
            "properties": {"date": {"type": "string", "example": "2024-01-15"}}
        },
        "SetSubtaskRequest": {
            "type": "object",
            "properties": {"is_done": {"type": "boolean"}}
        },
        "DeletedResponse": {
            "type": "object",
            "properties": {"deleted": {"type": "integer"}}
        },
        "FieldError": {
            "type": "object",
            "properties": {
                "field": {"type": "string"},
                "message": {"type": "string"}
            }
        },
        "ErrorResponse": {
            "type": "object",
            "properties": {
                "message": {"type": "string"},
                "fields": {"type": "array", "items": {"$ref": "#/definitions/FieldError"}}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header",
            "description": "Type 'Bearer' followed by a space and JWT token"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/api/v1",
	Schemes:          []string{"http"},
	Title:            "Routine API",
	Description:      "Daily routine planner: dated tasks, reusable day templates, reminders and backups",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
