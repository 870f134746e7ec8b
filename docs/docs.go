// Package docs registers the OpenAPI document served under /swagger.
// Regenerate with `swag init -g cmd/api/main.go` after changing handler
// annotations.
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
        "/api/auth/login": {
            "post": {
                "tags": ["auth"],
                "summary": "Login",
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/handler.loginRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.authResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handler.ErrorBody"}}
                }
            }
        },
        "/api/auth/refresh": {
            "post": {
                "tags": ["auth"],
                "summary": "Refresh the access token",
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/handler.refreshRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.authResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handler.ErrorBody"}}
                }
            }
        },
        "/api/auth/register": {
            "post": {
                "tags": ["auth"],
                "summary": "Register a new user",
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/handler.registerRequest"}}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/handler.authResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.ErrorBody"}}
                }
            }
        },
        "/api/categories": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["categories"],
                "summary": "List categories",
                "parameters": [{"type": "boolean", "in": "query", "name": "includeInactive"}],
                "responses": {"200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/domain.Category"}}}}
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["categories"],
                "summary": "Create a category",
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/handler.createCategoryRequest"}}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/domain.Category"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.ErrorBody"}}
                }
            }
        },
        "/api/categories/{id}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["categories"],
                "summary": "Get a category",
                "parameters": [{"type": "string", "in": "path", "name": "id", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.Category"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.ErrorBody"}}
                }
            },
            "put": {
                "security": [{"BearerAuth": []}],
                "tags": ["categories"],
                "summary": "Update a category",
                "parameters": [
                    {"type": "string", "in": "path", "name": "id", "required": true},
                    {"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/handler.updateCategoryRequest"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.Category"}}}
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "tags": ["categories"],
                "summary": "Deactivate or delete a category and its descendants",
                "parameters": [
                    {"type": "string", "in": "path", "name": "id", "required": true},
                    {"type": "boolean", "in": "query", "name": "hardDelete"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.deleteResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/handler.ErrorBody"}},
                    "500": {"description": "Partially applied", "schema": {"$ref": "#/definitions/handler.ErrorBody"}}
                }
            }
        },
        "/api/subcategories": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["subcategories"],
                "summary": "List subcategories with their category resolved",
                "parameters": [
                    {"type": "boolean", "in": "query", "name": "includeInactive"},
                    {"type": "string", "in": "query", "name": "category"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/domain.SubcategoryView"}}}}
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["subcategories"],
                "summary": "Create a subcategory under an active category",
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/handler.createSubcategoryRequest"}}],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/domain.Subcategory"}}}
            }
        },
        "/api/subcategories/{id}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["subcategories"],
                "summary": "Get a subcategory",
                "parameters": [{"type": "string", "in": "path", "name": "id", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.SubcategoryView"}}}
            },
            "put": {
                "security": [{"BearerAuth": []}],
                "tags": ["subcategories"],
                "summary": "Update a subcategory",
                "parameters": [
                    {"type": "string", "in": "path", "name": "id", "required": true},
                    {"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/handler.updateSubcategoryRequest"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.Subcategory"}}}
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "tags": ["subcategories"],
                "summary": "Deactivate or delete a subcategory and its products",
                "parameters": [
                    {"type": "string", "in": "path", "name": "id", "required": true},
                    {"type": "boolean", "in": "query", "name": "hardDelete"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.deleteResponse"}}}
            }
        },
        "/api/products": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["products"],
                "summary": "List products with category and subcategory resolved",
                "parameters": [
                    {"type": "boolean", "in": "query", "name": "includeInactive"},
                    {"type": "string", "in": "query", "name": "category"},
                    {"type": "string", "in": "query", "name": "subCategory"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/domain.ProductView"}}}}
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["products"],
                "summary": "Create a product",
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/handler.createProductRequest"}}],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/domain.Product"}}}
            }
        },
        "/api/products/{id}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["products"],
                "summary": "Get a product",
                "parameters": [{"type": "string", "in": "path", "name": "id", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.ProductView"}}}
            },
            "put": {
                "security": [{"BearerAuth": []}],
                "tags": ["products"],
                "summary": "Update a product",
                "parameters": [
                    {"type": "string", "in": "path", "name": "id", "required": true},
                    {"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/handler.updateProductRequest"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.Product"}}}
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "tags": ["products"],
                "summary": "Deactivate or delete a product",
                "parameters": [
                    {"type": "string", "in": "path", "name": "id", "required": true},
                    {"type": "boolean", "in": "query", "name": "hardDelete"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.deleteResponse"}}}
            }
        },
        "/api/users": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["users"],
                "summary": "List users",
                "responses": {"200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/domain.User"}}}}
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["users"],
                "summary": "Create a user",
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/handler.createUserRequest"}}],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/domain.User"}}}
            }
        },
        "/api/users/me": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["users"],
                "summary": "Current user",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.User"}}}
            }
        },
        "/api/audit/cascades": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["audit"],
                "summary": "List cascade audits",
                "parameters": [
                    {"type": "string", "in": "query", "name": "outcome", "enum": ["completed", "partial", "failed"]},
                    {"type": "integer", "in": "query", "name": "limit"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/domain.CascadeAudit"}}}}
            }
        }
    },
    "definitions": {
        "domain.Category": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "name": {"type": "string"},
                "description": {"type": "string"},
                "active": {"type": "boolean"},
                "createdAt": {"type": "string"},
                "updatedAt": {"type": "string"}
            }
        },
        "domain.Subcategory": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "name": {"type": "string"},
                "description": {"type": "string"},
                "category": {"type": "string"},
                "active": {"type": "boolean"},
                "createdAt": {"type": "string"},
                "updatedAt": {"type": "string"}
            }
        },
        "domain.Product": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "name": {"type": "string"},
                "description": {"type": "string"},
                "stock": {"type": "integer"},
                "price": {"type": "number"},
                "category": {"type": "string"},
                "subCategory": {"type": "string"},
                "active": {"type": "boolean"},
                "createdAt": {"type": "string"},
                "updatedAt": {"type": "string"}
            }
        },
        "domain.Ref": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "name": {"type": "string"},
                "active": {"type": "boolean"}
            }
        },
        "domain.SubcategoryView": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "name": {"type": "string"},
                "description": {"type": "string"},
                "category": {"$ref": "#/definitions/domain.Ref"},
                "active": {"type": "boolean"},
                "createdAt": {"type": "string"},
                "updatedAt": {"type": "string"}
            }
        },
        "domain.ProductView": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "name": {"type": "string"},
                "description": {"type": "string"},
                "stock": {"type": "integer"},
                "price": {"type": "number"},
                "category": {"$ref": "#/definitions/domain.Ref"},
                "subCategory": {"$ref": "#/definitions/domain.Ref"},
                "active": {"type": "boolean"},
                "createdAt": {"type": "string"},
                "updatedAt": {"type": "string"}
            }
        },
        "domain.User": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "username": {"type": "string"},
                "email": {"type": "string"},
                "role": {"type": "string", "enum": ["admin", "coordinador", "auxiliar"]},
                "active": {"type": "boolean"},
                "createdAt": {"type": "string"},
                "updatedAt": {"type": "string"}
            }
        },
        "domain.CascadeAudit": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "entity": {"type": "string"},
                "entityId": {"type": "string"},
                "mode": {"type": "string", "enum": ["soft", "hard"]},
                "outcome": {"type": "string", "enum": ["completed", "partial", "failed"]},
                "actor": {"type": "string"},
                "completedSteps": {"type": "array", "items": {"type": "string"}},
                "failedStep": {"type": "string"},
                "error": {"type": "string"},
                "subcategoriesAffected": {"type": "integer"},
                "productsAffected": {"type": "integer"},
                "at": {"type": "string"}
            }
        },
        "handler.ErrorBody": {
            "type": "object",
            "properties": {
                "error": {"type": "string"},
                "field": {"type": "string"},
                "partial": {"type": "boolean"},
                "failedStep": {"type": "string"},
                "completedSteps": {"type": "array", "items": {"type": "string"}}
            }
        },
        "handler.authResponse": {
            "type": "object",
            "properties": {
                "token": {"type": "string"},
                "refreshToken": {"type": "string"},
                "user": {"$ref": "#/definitions/domain.User"}
            }
        },
        "handler.loginRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {"email": {"type": "string"}, "password": {"type": "string"}}
        },
        "handler.refreshRequest": {
            "type": "object",
            "required": ["refreshToken"],
            "properties": {"refreshToken": {"type": "string"}}
        },
        "handler.registerRequest": {
            "type": "object",
            "required": ["email", "password", "username"],
            "properties": {"email": {"type": "string"}, "password": {"type": "string"}, "username": {"type": "string"}}
        },
        "handler.createUserRequest": {
            "type": "object",
            "required": ["email", "password", "username"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"},
                "username": {"type": "string"},
                "role": {"type": "string", "enum": ["admin", "coordinador", "auxiliar"]}
            }
        },
        "handler.createCategoryRequest": {
            "type": "object",
            "required": ["description", "name"],
            "properties": {"description": {"type": "string"}, "name": {"type": "string"}}
        },
        "handler.updateCategoryRequest": {
            "type": "object",
            "properties": {"description": {"type": "string"}, "name": {"type": "string"}}
        },
        "handler.createSubcategoryRequest": {
            "type": "object",
            "required": ["category", "description", "name"],
            "properties": {"category": {"type": "string"}, "description": {"type": "string"}, "name": {"type": "string"}}
        },
        "handler.updateSubcategoryRequest": {
            "type": "object",
            "properties": {"category": {"type": "string"}, "description": {"type": "string"}, "name": {"type": "string"}}
        },
        "handler.createProductRequest": {
            "type": "object",
            "required": ["category", "description", "name", "price", "stock", "subCategory"],
            "properties": {
                "category": {"type": "string"},
                "description": {"type": "string"},
                "name": {"type": "string"},
                "price": {"type": "number", "minimum": 0},
                "stock": {"type": "integer", "minimum": 0},
                "subCategory": {"type": "string"}
            }
        },
        "handler.updateProductRequest": {
            "type": "object",
            "properties": {
                "category": {"type": "string"},
                "description": {"type": "string"},
                "name": {"type": "string"},
                "price": {"type": "number", "minimum": 0},
                "stock": {"type": "integer", "minimum": 0},
                "subCategory": {"type": "string"}
            }
        },
        "handler.deleteResponse": {
            "type": "object",
            "properties": {
                "message": {"type": "string"},
                "entity": {"type": "string"},
                "id": {"type": "string"},
                "mode": {"type": "string", "enum": ["soft", "hard"]},
                "subcategoriesAffected": {"type": "integer"},
                "productsAffected": {"type": "integer"}
            }
        }
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
	Title:            "Catalog API",
	Description:      "Category, subcategory and product catalog with cascading deletes.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
