package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "CampusPass API",
        "description": "Student portal: sign-in, announcements and the shared calendar, with live updates over Server-Sent Events.",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "StudentNumber": {"type": "apiKey", "in": "header", "name": "X-Student-Number"},
        "UserRole": {"type": "apiKey", "in": "header", "name": "X-User-Role"}
    },
    "tags": [
        {"name": "Authentication", "description": "Sign-in and password recovery"},
        {"name": "Profile", "description": "The signed-in user"},
        {"name": "Announcements", "description": "Campus announcements, newest first"},
        {"name": "Calendar", "description": "Events and assessments in chronological order"}
    ],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Sign in",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Verification failed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/auth/forgot-password": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Reset a forgotten password",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ResetPasswordRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Verification failed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/me": {
            "get": {
                "tags": ["Profile"],
                "summary": "Current user",
                "security": [{"StudentNumber": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/me/password": {
            "put": {
                "tags": ["Profile"],
                "summary": "Change password",
                "security": [{"StudentNumber": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ChangePasswordRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Old password is not correct", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/me/display-name": {
            "put": {
                "tags": ["Profile"],
                "summary": "Change display name",
                "security": [{"StudentNumber": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ChangeDisplayNameRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/announcements": {
            "get": {
                "tags": ["Announcements"],
                "summary": "List announcements",
                "security": [{"StudentNumber": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Announcements"],
                "summary": "Post an announcement",
                "security": [{"StudentNumber": [], "UserRole": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateAnnouncementRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Admin role required", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "502": {"description": "Write failed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/announcements/{id}": {
            "delete": {
                "tags": ["Announcements"],
                "summary": "Delete an announcement",
                "security": [{"StudentNumber": [], "UserRole": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "Deleted"},
                    "403": {"description": "Admin role required", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/announcements/stream": {
            "get": {
                "tags": ["Announcements"],
                "summary": "Stream announcements",
                "description": "Server-Sent Events. Each snapshot event carries the full ordered list; ping events keep the connection open.",
                "produces": ["text/event-stream"],
                "parameters": [
                    {"name": "studentNumber", "in": "query", "type": "string"},
                    {"name": "role", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Event stream"}
                }
            }
        },
        "/announcements/export": {
            "get": {
                "tags": ["Announcements"],
                "summary": "Export announcements",
                "produces": ["text/csv", "application/pdf"],
                "security": [{"StudentNumber": []}],
                "parameters": [
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "File", "schema": {"type": "file"}}
                }
            }
        },
        "/calendar-items": {
            "get": {
                "tags": ["Calendar"],
                "summary": "List calendar items",
                "security": [{"StudentNumber": []}],
                "parameters": [
                    {"name": "date", "in": "query", "type": "string", "format": "date"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Calendar"],
                "summary": "Add an event or assessment",
                "security": [{"StudentNumber": [], "UserRole": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateCalendarItemRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Admin role required", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "502": {"description": "Write failed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/calendar-items/{id}": {
            "delete": {
                "tags": ["Calendar"],
                "summary": "Delete a calendar item",
                "security": [{"StudentNumber": [], "UserRole": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "Deleted"}
                }
            }
        },
        "/calendar-items/days": {
            "get": {
                "tags": ["Calendar"],
                "summary": "Days with calendar items",
                "security": [{"StudentNumber": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/calendar-items/stream": {
            "get": {
                "tags": ["Calendar"],
                "summary": "Stream calendar items",
                "produces": ["text/event-stream"],
                "parameters": [
                    {"name": "studentNumber", "in": "query", "type": "string"},
                    {"name": "role", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Event stream"}
                }
            }
        },
        "/calendar-items/export": {
            "get": {
                "tags": ["Calendar"],
                "summary": "Export the calendar",
                "produces": ["text/csv", "application/pdf"],
                "security": [{"StudentNumber": []}],
                "parameters": [
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "File", "schema": {"type": "file"}}
                }
            }
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "properties": {
                "studentNumber": {"type": "string"},
                "password": {"type": "string"}
            },
            "required": ["studentNumber", "password"]
        },
        "ResetPasswordRequest": {
            "type": "object",
            "properties": {
                "studentNumber": {"type": "string"},
                "fullName": {"type": "string"},
                "newPassword": {"type": "string", "minLength": 6},
                "confirmPassword": {"type": "string"}
            },
            "required": ["studentNumber", "fullName", "newPassword", "confirmPassword"]
        },
        "ChangePasswordRequest": {
            "type": "object",
            "properties": {
                "oldPassword": {"type": "string"},
                "newPassword": {"type": "string", "minLength": 6},
                "confirmPassword": {"type": "string"}
            },
            "required": ["oldPassword", "newPassword", "confirmPassword"]
        },
        "ChangeDisplayNameRequest": {
            "type": "object",
            "properties": {
                "displayName": {"type": "string"}
            },
            "required": ["displayName"]
        },
        "UserInfo": {
            "type": "object",
            "properties": {
                "studentNumber": {"type": "string"},
                "fullName": {"type": "string"},
                "role": {"type": "string", "enum": ["admin", "student"]},
                "displayName": {"type": "string"},
                "greetingName": {"type": "string"}
            }
        },
        "Announcement": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "title": {"type": "string"},
                "content": {"type": "string"},
                "category": {"type": "string", "enum": ["Academics", "Event", "Campus", "Other"]},
                "date": {"type": "string", "format": "date"}
            }
        },
        "CreateAnnouncementRequest": {
            "type": "object",
            "properties": {
                "title": {"type": "string"},
                "content": {"type": "string"},
                "category": {"type": "string", "enum": ["Academics", "Event", "Campus", "Other"]}
            },
            "required": ["title", "content", "category"]
        },
        "CalendarItem": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "type": {"type": "string", "enum": ["event", "assessment"]},
                "title": {"type": "string"},
                "subject": {"type": "string"},
                "description": {"type": "string"},
                "date": {"type": "string"}
            }
        },
        "CreateCalendarItemRequest": {
            "type": "object",
            "properties": {
                "type": {"type": "string", "enum": ["event", "assessment"]},
                "title": {"type": "string"},
                "description": {"type": "string"},
                "subject": {"type": "string"},
                "eventDate": {"type": "string", "format": "date"},
                "dueDate": {"type": "string", "format": "date"},
                "dueTime": {"type": "string", "example": "14:30"}
            },
            "required": ["type", "title"]
        },
        "CalendarDay": {
            "type": "object",
            "properties": {
                "date": {"type": "string", "format": "date"},
                "events": {"type": "integer"},
                "assessments": {"type": "integer"}
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
