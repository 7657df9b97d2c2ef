// Package docs registers the OpenAPI description served at /swagger.
// Regenerate with: swag init -g cmd/main.go
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
        "/health": {"get": {"tags": ["system"], "summary": "Health check", "responses": {"200": {"description": "OK"}}}},
        "/auth/sign-up": {"post": {"tags": ["auth"], "summary": "Create an account and sign in", "responses": {"200": {"description": "OK"}, "409": {"description": "Conflict"}, "422": {"description": "Unprocessable Entity"}, "502": {"description": "Bad Gateway"}}}},
        "/auth/sign-in": {"post": {"tags": ["auth"], "summary": "Sign in with email and password", "responses": {"200": {"description": "OK"}, "409": {"description": "Conflict"}, "422": {"description": "Unprocessable Entity"}, "502": {"description": "Bad Gateway"}}}},
        "/auth/sign-out": {"post": {"security": [{"BearerAuth": []}], "tags": ["auth"], "summary": "End the current session", "responses": {"200": {"description": "OK"}}}},
        "/api/v1/me": {"get": {"security": [{"BearerAuth": []}], "tags": ["users"], "summary": "Current user", "responses": {"200": {"description": "OK"}}}},
        "/api/v1/posts": {"post": {"security": [{"BearerAuth": []}], "consumes": ["multipart/form-data"], "tags": ["posts"], "summary": "Create post", "responses": {"201": {"description": "Created"}, "422": {"description": "Unprocessable Entity"}}}},
        "/api/v1/posts/recent": {"get": {"security": [{"BearerAuth": []}], "tags": ["posts"], "summary": "Home feed", "responses": {"200": {"description": "OK"}}}},
        "/api/v1/posts/explore": {"get": {"security": [{"BearerAuth": []}], "tags": ["posts"], "summary": "Explore grid", "responses": {"200": {"description": "OK"}}}},
        "/api/v1/posts/most-liked": {"get": {"security": [{"BearerAuth": []}], "tags": ["posts"], "summary": "Trending posts", "responses": {"200": {"description": "OK"}}}},
        "/api/v1/posts/search": {"get": {"security": [{"BearerAuth": []}], "tags": ["posts"], "summary": "Search posts by caption", "parameters": [{"type": "string", "name": "q", "in": "query", "required": true}], "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}}},
        "/api/v1/posts/{id}": {"get": {"security": [{"BearerAuth": []}], "tags": ["posts"], "summary": "Get post", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}}},
        "/api/v1/posts/{id}/like": {"post": {"security": [{"BearerAuth": []}], "tags": ["posts"], "summary": "Like or unlike a post", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}}},
        "/api/v1/users/me": {"patch": {"security": [{"BearerAuth": []}], "consumes": ["multipart/form-data"], "tags": ["users"], "summary": "Edit profile", "responses": {"200": {"description": "OK"}, "422": {"description": "Unprocessable Entity"}}}},
        "/api/v1/users/{id}": {"get": {"security": [{"BearerAuth": []}], "tags": ["users"], "summary": "Get user", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}}},
        "/api/v1/users/{id}/profile": {"get": {"security": [{"BearerAuth": []}], "tags": ["users"], "summary": "Profile page", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}}},
        "/api/v1/users/{id}/posts": {"get": {"security": [{"BearerAuth": []}], "tags": ["users"], "summary": "Posts by user", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}}},
        "/api/v1/users/{id}/follow": {"post": {"security": [{"BearerAuth": []}], "tags": ["users"], "summary": "Follow or unfollow", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "409": {"description": "Conflict"}}}},
        "/api/v1/files/{id}/preview": {"get": {"security": [{"BearerAuth": []}], "tags": ["files"], "summary": "File preview", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"302": {"description": "Found"}}}},
        "/api/v1/logs": {"get": {"security": [{"BearerAuth": []}], "tags": ["logs"], "summary": "Activity log", "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}}},
        "/ws/search": {"get": {"security": [{"BearerAuth": []}], "tags": ["posts"], "summary": "Search overlay stream", "responses": {"101": {"description": "Switching Protocols"}}}}
    },
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "DisMoment API",
	Description:      "Gateway for the DisMoment photo sharing client.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
