// Package docs provides the Swagger specification for the API.
// Regenerate with: swag init -g cmd/api/main.go
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
        "/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK"},
                    "503": {"description": "Service Unavailable"}
                }
            }
        },
        "/wa/{phone}": {
            "get": {
                "produces": ["text/html"],
                "tags": ["redirect"],
                "summary": "WhatsApp redirect with UTM tracking",
                "parameters": [
                    {"type": "string", "name": "phone", "in": "path", "required": true},
                    {"type": "string", "name": "utm_source", "in": "query"},
                    {"type": "string", "name": "utm_medium", "in": "query"},
                    {"type": "string", "name": "utm_campaign", "in": "query"},
                    {"type": "string", "name": "utm_content", "in": "query"},
                    {"type": "string", "name": "utm_term", "in": "query"},
                    {"type": "string", "name": "fbclid", "in": "query"},
                    {"type": "string", "name": "gclid", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "Landing page"},
                    "400": {"description": "Fallback landing page"}
                }
            }
        },
        "/webhooks/kommo": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["webhooks"],
                "summary": "Kommo incoming-message webhook",
                "responses": {
                    "200": {"description": "Acknowledged"}
                }
            }
        },
        "/api/clicks": {
            "get": {
                "produces": ["application/json"],
                "tags": ["clicks"],
                "summary": "List clicks",
                "parameters": [
                    {"type": "integer", "name": "page", "in": "query"},
                    {"type": "integer", "name": "limit", "in": "query"},
                    {"type": "string", "name": "campaign", "in": "query"},
                    {"type": "string", "name": "source", "in": "query"},
                    {"type": "string", "name": "status", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "400": {"description": "Bad Request"}
                }
            }
        },
        "/api/clicks/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["clicks"],
                "summary": "Get a click",
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Not Found"}
                }
            }
        },
        "/api/clicks/{id}/retry": {
            "post": {
                "produces": ["application/json"],
                "tags": ["clicks"],
                "summary": "Retry Kommo lead registration",
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "202": {"description": "Accepted"},
                    "400": {"description": "Bad Request"},
                    "404": {"description": "Not Found"}
                }
            }
        },
        "/api/campaigns": {
            "get": {
                "produces": ["application/json"],
                "tags": ["campaigns"],
                "summary": "List campaigns",
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["campaigns"],
                "summary": "Create a campaign",
                "responses": {
                    "201": {"description": "Created"},
                    "400": {"description": "Bad Request"}
                }
            }
        },
        "/api/campaigns/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["campaigns"],
                "summary": "Get a campaign",
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Not Found"}
                }
            },
            "put": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["campaigns"],
                "summary": "Update a campaign",
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "400": {"description": "Bad Request"},
                    "404": {"description": "Not Found"}
                }
            },
            "delete": {
                "produces": ["application/json"],
                "tags": ["campaigns"],
                "summary": "Delete a campaign",
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Not Found"}
                }
            }
        },
        "/api/campaigns/{id}/tracking-url": {
            "get": {
                "produces": ["application/json"],
                "tags": ["campaigns"],
                "summary": "Generate a tracking URL for a campaign",
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Not Found"}
                }
            }
        },
        "/api/analytics/summary": {
            "get": {
                "produces": ["application/json"],
                "tags": ["analytics"],
                "summary": "Dashboard summary",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/analytics/top-campaigns": {
            "get": {
                "produces": ["application/json"],
                "tags": ["analytics"],
                "summary": "Top campaigns by clicks",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/analytics/recent-clicks": {
            "get": {
                "produces": ["application/json"],
                "tags": ["analytics"],
                "summary": "Recent clicks",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/analytics/campaigns/{name}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["analytics"],
                "summary": "Campaign statistics",
                "parameters": [
                    {"type": "string", "name": "name", "in": "path", "required": true}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{"http", "https"},
	Title:            "UTM WhatsApp Tracker API",
	Description:      "Click attribution for WhatsApp campaign traffic with Kommo CRM lead registration",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
