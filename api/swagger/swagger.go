package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Folios Console Gateway",
        "description": "Operator console for the Instituto Valle de Chiapas student and folio backend",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http",
        "https"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Authentication", "description": "Console sessions"},
        {"name": "Views", "description": "Role-composed screens"},
        {"name": "Students", "description": "Student records"},
        {"name": "Payments", "description": "Folios and balances"},
        {"name": "Receipts", "description": "Printable folio receipts"},
        {"name": "Users", "description": "Read-only console accounts"},
        {"name": "Audit", "description": "Operator audit trail"}
    ],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Sign in to the console",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Credenciales incorrectas", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/auth/logout": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Sign out",
                "security": [{"BearerAuth": []}],
                "responses": {"204": {"description": "No Content"}}
            }
        },
        "/auth/me": {
            "get": {
                "tags": ["Authentication"],
                "summary": "Current session and allowed actions",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/views": {
            "get": {
                "tags": ["Views"],
                "summary": "Load a console view",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "view", "in": "query", "type": "string", "enum": ["students", "payments", "users"]},
                    {"name": "nivel_educativo", "in": "query", "type": "string"},
                    {"name": "field", "in": "query", "type": "string"},
                    {"name": "value", "in": "query", "type": "string"},
                    {"name": "student_id", "in": "query", "type": "string"},
                    {"name": "anio_pago", "in": "query", "type": "string"},
                    {"name": "X-View-Seq", "in": "header", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/students": {
            "get": {
                "tags": ["Students"],
                "summary": "List students",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "nivel_educativo", "in": "query", "type": "string"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "tags": ["Students"],
                "summary": "Register a student",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/StudentRequest"}}
                ],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/students/search": {
            "get": {
                "tags": ["Students"],
                "summary": "Search students by field",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "field", "in": "query", "required": true, "type": "string", "enum": ["nombre", "apellido_paterno", "apellido_materno", "telefono"]},
                    {"name": "value", "in": "query", "type": "string"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/students/levels": {
            "get": {
                "tags": ["Students"],
                "summary": "Education levels",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/students/{id}": {
            "get": {
                "tags": ["Students"],
                "summary": "Get student detail",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "put": {
                "tags": ["Students"],
                "summary": "Update a student",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/StudentRequest"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "delete": {
                "tags": ["Students"],
                "summary": "Delete a student",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/payments": {
            "get": {
                "tags": ["Payments"],
                "summary": "List folios",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "nivel_educativo", "in": "query", "type": "string"},
                    {"name": "student_id", "in": "query", "type": "string"},
                    {"name": "anio_pago", "in": "query", "type": "string"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "tags": ["Payments"],
                "summary": "Generate a folio",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/PaymentRequest"}}
                ],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/payments/export": {
            "get": {
                "tags": ["Payments"],
                "summary": "Export folios as CSV or PDF",
                "parameters": [{"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}],
                "security": [{"BearerAuth": []}],
                "produces": ["text/csv", "application/pdf"],
                "responses": {"200": {"description": "CSV or PDF file"}}
            }
        },
        "/payments/{id}": {
            "delete": {
                "tags": ["Payments"],
                "summary": "Delete a folio",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/payments/{id}/receipt": {
            "get": {
                "tags": ["Receipts"],
                "summary": "Render a folio receipt",
                "security": [{"BearerAuth": []}],
                "produces": ["application/pdf"],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "download", "in": "query", "type": "boolean"}
                ],
                "responses": {"200": {"description": "PDF file"}}
            },
            "post": {
                "tags": ["Receipts"],
                "summary": "Save a folio receipt behind a signed link",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/receipts/download/{token}": {
            "get": {
                "tags": ["Receipts"],
                "summary": "Download a saved receipt",
                "produces": ["application/pdf"],
                "parameters": [{"name": "token", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "PDF file"},
                    "404": {"description": "Expired or missing", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/users": {
            "get": {
                "tags": ["Users"],
                "summary": "List console accounts",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/audit-logs": {
            "get": {
                "tags": ["Audit"],
                "summary": "List audit entries",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "actor", "in": "query", "type": "string"},
                    {"name": "action", "in": "query", "type": "string"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/metrics/summary": {
            "get": {
                "tags": ["Observability"],
                "summary": "Gateway metrics summary",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "required": ["username", "password"],
            "properties": {
                "username": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "StudentRequest": {
            "type": "object",
            "required": ["nombre", "apellido_paterno", "apellido_materno", "fecha_nacimiento", "nivel_educativo", "telefono"],
            "properties": {
                "nombre": {"type": "string"},
                "apellido_paterno": {"type": "string"},
                "apellido_materno": {"type": "string"},
                "fecha_nacimiento": {"type": "string", "format": "date"},
                "nivel_educativo": {"type": "string"},
                "telefono": {"type": "string"},
                "email": {"type": "string"},
                "tutor": {"type": "string"},
                "numero_telefonico_tutor": {"type": "string"},
                "dia_pago": {"type": "integer"},
                "monto_mensual": {"type": "number"}
            }
        },
        "PaymentRequest": {
            "type": "object",
            "required": ["student_id", "mes_pago", "total"],
            "properties": {
                "student_id": {"type": "string"},
                "mes_pago": {"type": "string"},
                "anio_pago": {"type": "string"},
                "total": {"type": "number"},
                "abono": {"type": "number"},
                "nota": {"type": "string"}
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
