// Package docs holds the OpenAPI document of the awsknow HTTP service.
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
        "/": {
            "get": {
                "produces": ["application/json"],
                "summary": "Describe the service",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/server.Info"}}
                }
            }
        },
        "/health": {
            "get": {
                "produces": ["application/json"],
                "summary": "Report whether the model is initialized",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/server.Health"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/server.Problem"}}
                }
            }
        },
        "/knowledge": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["text/plain"],
                "summary": "Answer a prompt with the model and the AWS knowledge tools",
                "parameters": [
                    {
                        "description": "Prompt",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/server.PromptRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "Answer", "schema": {"type": "string"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/server.Problem"}},
                    "500": {"description": "Model not initialized, or the model or a tool failed", "schema": {"$ref": "#/definitions/server.Problem"}}
                }
            }
        }
    },
    "definitions": {
        "server.Health": {
            "type": "object",
            "properties": {
                "status": {"type": "string", "example": "healthy"},
                "bedrock_model": {"type": "string", "example": "initialized"}
            }
        },
        "server.Info": {
            "type": "object",
            "properties": {
                "service": {"type": "string"},
                "description": {"type": "string"},
                "version": {"type": "string"},
                "endpoints": {"type": "object", "additionalProperties": {"type": "string"}},
                "powered_by": {"type": "string"},
                "model": {"type": "string"},
                "tools": {"type": "array", "items": {"type": "string"}}
            }
        },
        "server.Problem": {
            "type": "object",
            "properties": {
                "detail": {"type": "string"}
            }
        },
        "server.PromptRequest": {
            "type": "object",
            "required": ["prompt"],
            "properties": {
                "prompt": {"type": "string", "example": "What is Amazon S3?"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "dev",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "awsknow",
	Description:      "Answers AWS questions with a hosted language model and the AWS knowledge MCP server.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
