package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "SMA Timetable API",
        "description": "Timetable solving for class academic years.",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "security": [
        {"BearerAuth": []}
    ],
    "tags": [
        {"name": "Timetables", "description": "Timetable solving"},
        {"name": "Preferences", "description": "Teacher blocked slots"}
    ],
    "paths": {
        "/schedule-slots": {
            "get": {
                "tags": ["Timetables"],
                "summary": "List schedule slots",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/schedule-slots/refresh": {
            "post": {
                "tags": ["Timetables"],
                "summary": "Reload the schedule slot catalogue from the database",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetables/solve": {
            "post": {
                "tags": ["Timetables"],
                "summary": "Solve a timetable from an inline payload",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SolveTimetableRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "413": {"description": "Too many assignments", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetables/generate": {
            "post": {
                "tags": ["Timetables"],
                "summary": "Solve the stored assignments of class academic years",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/GenerateTimetableRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetables/runs": {
            "post": {
                "tags": ["Timetables"],
                "summary": "Queue an asynchronous timetable generation",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/GenerateTimetableRequest"}}
                ],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "503": {"description": "Queue full", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetables/runs/{id}": {
            "get": {
                "tags": ["Timetables"],
                "summary": "Get an asynchronous timetable run",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/teachers/{id}/preferences": {
            "get": {
                "tags": ["Preferences"],
                "summary": "Get teacher blocked slots",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["Preferences"],
                "summary": "Replace teacher blocked slots",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpsertTeacherPreferenceRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Unknown slot", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "Assignment": {
            "type": "object",
            "required": ["teacherId", "classAcademicYearId", "subjectId"],
            "properties": {
                "teacherId": {"type": "string"},
                "classAcademicYearId": {"type": "string"},
                "subjectId": {"type": "string"},
                "teacherName": {"type": "string"},
                "className": {"type": "string"},
                "subjectName": {"type": "string"}
            }
        },
        "ScheduleSlot": {
            "type": "object",
            "required": ["id", "start_time", "end_time"],
            "properties": {
                "id": {"type": "string"},
                "name": {"type": "string"},
                "start_time": {"type": "string", "example": "07:00"},
                "end_time": {"type": "string", "example": "07:45"}
            }
        },
        "TeacherPreference": {
            "type": "object",
            "properties": {
                "teacherId": {"type": "string"},
                "blockedSlotIds": {"type": "array", "items": {"type": "string"}}
            }
        },
        "SolveOptions": {
            "type": "object",
            "properties": {
                "allYear": {"type": "boolean"},
                "days": {"type": "array", "items": {"type": "string", "enum": ["monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"]}},
                "classMaxConcurrentPerSlot": {"type": "object", "additionalProperties": {"type": "integer", "minimum": 1}},
                "timeLimitMs": {"type": "integer", "minimum": 0},
                "requireComplete": {"type": "boolean"}
            }
        },
        "SolveTimetableRequest": {
            "type": "object",
            "properties": {
                "assignments": {"type": "array", "items": {"$ref": "#/definitions/Assignment"}},
                "slots": {"type": "array", "items": {"$ref": "#/definitions/ScheduleSlot"}},
                "preferences": {"type": "array", "items": {"$ref": "#/definitions/TeacherPreference"}},
                "options": {"$ref": "#/definitions/SolveOptions"}
            }
        },
        "GenerateTimetableRequest": {
            "type": "object",
            "required": ["classAcademicYearIds"],
            "properties": {
                "classAcademicYearIds": {"type": "array", "items": {"type": "string"}},
                "options": {"$ref": "#/definitions/SolveOptions"}
            }
        },
        "UpsertTeacherPreferenceRequest": {
            "type": "object",
            "properties": {
                "blockedSlotIds": {"type": "array", "items": {"type": "string"}}
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
