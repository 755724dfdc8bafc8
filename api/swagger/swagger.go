package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "SMA Score Engine API",
        "description": "Score entry, summary recompute, ranking and achievement bands",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Evaluation Methods", "description": "Weighted assessment components per subject"},
        {"name": "Scores", "description": "Raw score entry"},
        {"name": "Summaries", "description": "Per-student subject summaries, ranks and bands"}
    ],
    "paths": {
        "/health": {
            "get": {
                "summary": "Health check",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/ready": {
            "get": {
                "summary": "Readiness check",
                "responses": {
                    "200": {"description": "Ready"},
                    "503": {"description": "A dependency is unreachable"}
                }
            }
        },
        "/metrics": {
            "get": {
                "summary": "Prometheus metrics",
                "produces": ["text/plain"],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/v1/evaluation-methods": {
            "get": {
                "tags": ["Evaluation Methods"],
                "summary": "List evaluation methods of a subject",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "subjectId", "in": "query", "required": true, "type": "string"},
                    {"name": "year", "in": "query", "required": true, "type": "integer"},
                    {"name": "semester", "in": "query", "required": true, "type": "integer"},
                    {"name": "grade", "in": "query", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Evaluation Methods"],
                "summary": "Create an evaluation method",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateEvaluationMethodRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid weights or exam type", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/scores": {
            "post": {
                "tags": ["Scores"],
                "summary": "Record one raw score and refresh the class summaries",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpsertScoreRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Method or classroom not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/scores/bulk": {
            "post": {
                "tags": ["Scores"],
                "summary": "Record many raw scores in one transaction",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/BulkUpsertScoresRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/summaries": {
            "get": {
                "tags": ["Summaries"],
                "summary": "List the ranked summaries of a class",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "year", "in": "query", "required": true, "type": "integer"},
                    {"name": "semester", "in": "query", "required": true, "type": "integer"},
                    {"name": "grade", "in": "query", "required": true, "type": "integer"},
                    {"name": "classNum", "in": "query", "required": true, "type": "integer"},
                    {"name": "subjectId", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/summaries/recompute": {
            "post": {
                "tags": ["Summaries"],
                "summary": "Recompute summaries for a class",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RecomputeRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Classroom or subject not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/summaries/export": {
            "get": {
                "tags": ["Summaries"],
                "summary": "Download a class sheet",
                "security": [{"BearerAuth": []}],
                "produces": ["text/csv", "application/pdf"],
                "parameters": [
                    {"name": "year", "in": "query", "required": true, "type": "integer"},
                    {"name": "semester", "in": "query", "required": true, "type": "integer"},
                    {"name": "grade", "in": "query", "required": true, "type": "integer"},
                    {"name": "classNum", "in": "query", "required": true, "type": "integer"},
                    {"name": "subjectId", "in": "query", "required": true, "type": "string"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "File"},
                    "404": {"description": "Exports disabled", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/summaries/{studentId}/{subjectId}": {
            "get": {
                "tags": ["Summaries"],
                "summary": "Get one student's summary for a subject",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "studentId", "in": "path", "required": true, "type": "string"},
                    {"name": "subjectId", "in": "path", "required": true, "type": "string"},
                    {"name": "year", "in": "query", "type": "integer"},
                    {"name": "semester", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/summaries/{id}/feedback": {
            "patch": {
                "tags": ["Summaries"],
                "summary": "Set or clear teacher feedback on a summary",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/FeedbackRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "CreateEvaluationMethodRequest": {
            "type": "object",
            "required": ["subject_id", "year", "semester", "grade", "exam_type", "title", "weight", "full_score"],
            "properties": {
                "subject_id": {"type": "string"},
                "year": {"type": "integer"},
                "semester": {"type": "integer", "enum": [1, 2]},
                "grade": {"type": "integer"},
                "exam_type": {"type": "string", "enum": ["WRITTEN", "PRACTICAL", "MIDTERM", "FINAL", "PERFORMANCE"]},
                "title": {"type": "string"},
                "weight": {"type": "number"},
                "full_score": {"type": "number"}
            }
        },
        "UpsertScoreRequest": {
            "type": "object",
            "required": ["student_id", "evaluation_method_id", "raw_score"],
            "properties": {
                "student_id": {"type": "string"},
                "evaluation_method_id": {"type": "string"},
                "raw_score": {"type": "number"}
            }
        },
        "BulkUpsertScoresRequest": {
            "type": "object",
            "required": ["items"],
            "properties": {
                "items": {"type": "array", "items": {"$ref": "#/definitions/UpsertScoreRequest"}}
            }
        },
        "RecomputeRequest": {
            "type": "object",
            "required": ["year", "semester", "grade", "class_num"],
            "properties": {
                "year": {"type": "integer"},
                "semester": {"type": "integer"},
                "grade": {"type": "integer"},
                "class_num": {"type": "integer"},
                "subject_id": {"type": "string"}
            }
        },
        "FeedbackRequest": {
            "type": "object",
            "properties": {
                "feedback": {"type": "string"}
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
