// Package order holds the swag-generated OpenAPI document for the order service.
// Regenerate with: swag init -g cmd/order-service/main.go -o docs/order --instanceName order
package order

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "license": {
            "name": "MIT",
            "url": "https://opensource.org/licenses/MIT"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/dapr/subscribe": {
            "get": {
                "produces": ["application/json"],
                "tags": ["events"],
                "summary": "Programmatic subscriptions",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "array",
                            "items": {"$ref": "#/definitions/Subscription"}
                        }
                    }
                }
            }
        },
        "/orders": {
            "get": {
                "produces": ["application/json"],
                "tags": ["orders"],
                "summary": "List orders",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "array",
                            "items": {"$ref": "#/definitions/OrderResponse"}
                        }
                    },
                    "500": {
                        "description": "Internal Server Error",
                        "schema": {"$ref": "#/definitions/ErrorResponse"}
                    }
                }
            },
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["orders"],
                "summary": "Create order",
                "parameters": [
                    {
                        "description": "Order creation request",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/CreateOrderRequest"}
                    }
                ],
                "responses": {
                    "201": {
                        "description": "Created",
                        "schema": {"$ref": "#/definitions/OrderResponse"},
                        "headers": {
                            "Location": {"type": "string", "description": "/orders/{id}"}
                        }
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {"$ref": "#/definitions/ErrorResponse"}
                    },
                    "422": {
                        "description": "Unprocessable Entity",
                        "schema": {"$ref": "#/definitions/ErrorResponse"}
                    }
                }
            }
        },
        "/product-created": {
            "post": {
                "description": "Accepts a CloudEvents envelope (event under \"data\") or a bare event. Undecodable bodies are dropped with 200.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["events"],
                "summary": "Receive product.created",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {"$ref": "#/definitions/DeliveryResponse"}
                    },
                    "413": {
                        "description": "Request Entity Too Large",
                        "schema": {"$ref": "#/definitions/ErrorResponse"}
                    },
                    "500": {
                        "description": "Internal Server Error",
                        "schema": {"$ref": "#/definitions/DeliveryResponse"}
                    }
                }
            }
        }
    },
    "definitions": {
        "CreateOrderRequest": {
            "type": "object",
            "required": ["productId"],
            "properties": {
                "productId": {"type": "string", "example": "123e4567-e89b-12d3-a456-426614174000"}
            }
        },
        "DeliveryResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string", "example": "SUCCESS"}
            }
        },
        "ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string", "example": "Invalid JSON"}
            }
        },
        "OrderResponse": {
            "type": "object",
            "properties": {
                "createdAt": {"type": "string", "example": "2024-01-15T10:30:00Z"},
                "id": {"type": "string", "example": "550e8400-e29b-41d4-a716-446655440000"},
                "productId": {"type": "string", "example": "123e4567-e89b-12d3-a456-426614174000"}
            }
        },
        "Subscription": {
            "type": "object",
            "properties": {
                "pubsubname": {"type": "string", "example": "messagebus"},
                "route": {"type": "string", "example": "/product-created"},
                "topic": {"type": "string", "example": "product.created"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:5002",
	BasePath:         "/",
	Schemes:          []string{"http", "https"},
	Title:            "Order Service API",
	Description:      "Order materializer. Creates an order for every product.created delivery.",
	InfoInstanceName: "order",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
