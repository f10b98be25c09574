package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "QR Attendance API",
        "description": "Class sessions identified by QR tokens, student check-in and attendance statistics.",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Auth", "description": "Registration and login"},
        {"name": "Sessions", "description": "Class sessions and their QR tokens"},
        {"name": "Attendance", "description": "Check-in, roster and statistics"},
        {"name": "Reports", "description": "Asynchronous CSV/PDF exports"}
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
                    "503": {"description": "Database unreachable"}
                }
            }
        },
        "/metrics": {
            "get": {
                "summary": "Prometheus metrics",
                "produces": ["text/plain"],
                "responses": {"200": {"description": "Exposition format"}}
            }
        },
        "/register": {
            "post": {
                "tags": ["Auth"],
                "summary": "Register a student or administrator",
                "parameters": [
                    {"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/RegisterRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/RegisterResponse"}},
                    "400": {"description": "Missing fields or invalid role", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Username or roll number taken", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Verify credentials",
                "parameters": [
                    {"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/LoginResponse"}},
                    "401": {"description": "Invalid username or password", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/admin/create_session": {
            "post": {
                "tags": ["Sessions"],
                "summary": "Open a class session and issue its QR token",
                "parameters": [
                    {"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/CreateSessionRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/CreateSessionResponse"}},
                    "400": {"description": "Missing class name or code", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/admin/sessions": {
            "get": {
                "tags": ["Sessions"],
                "summary": "List sessions newest first",
                "parameters": [
                    {"in": "query", "name": "class_id", "type": "string"},
                    {"in": "query", "name": "date", "type": "string", "format": "date"}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "400": {"description": "Invalid date format", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/admin/sessions/{token}/qr": {
            "get": {
                "tags": ["Sessions"],
                "summary": "Render the session token as a PNG QR code",
                "produces": ["image/png"],
                "parameters": [
                    {"in": "path", "name": "token", "required": true, "type": "string"},
                    {"in": "query", "name": "size", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "PNG image"},
                    "404": {"description": "Unknown token", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/admin/attendance": {
            "get": {
                "tags": ["Attendance"],
                "summary": "Attendance roster with per-student statistics",
                "parameters": [
                    {"in": "query", "name": "class_id", "type": "string"},
                    {"in": "query", "name": "date", "type": "string", "format": "date"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/RosterResponse"}},
                    "400": {"description": "Invalid date or missing class", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/admin/update_attendance": {
            "post": {
                "tags": ["Attendance"],
                "summary": "Override an attendance record's status",
                "parameters": [
                    {"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/UpdateAttendanceRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "400": {"description": "Invalid record ID or status", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Record not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/admin/delete_student": {
            "post": {
                "tags": ["Attendance"],
                "summary": "Delete a student and their attendance",
                "parameters": [
                    {"in": "body", "name": "payload", "required": true, "schema": {"type": "object", "properties": {"student_id": {"type": "string"}}}}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Student not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/student/mark_attendance": {
            "post": {
                "tags": ["Attendance"],
                "summary": "Check in to a session by QR token",
                "parameters": [
                    {"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/MarkAttendanceRequest"}}
                ],
                "responses": {
                    "200": {"description": "Marked or already marked", "schema": {"$ref": "#/definitions/MarkAttendanceResponse"}},
                    "404": {"description": "Invalid session or unknown student", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/student/stats/{student_id}": {
            "get": {
                "tags": ["Attendance"],
                "summary": "Attendance totals for one student",
                "parameters": [
                    {"in": "path", "name": "student_id", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/StudentStatsResponse"}},
                    "404": {"description": "Student not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/admin/reports": {
            "post": {
                "tags": ["Reports"],
                "summary": "Queue a CSV or PDF export",
                "parameters": [
                    {"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/ReportRequest"}}
                ],
                "responses": {
                    "202": {"description": "Accepted"},
                    "400": {"description": "Unsupported type or format", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/admin/reports/{id}": {
            "get": {
                "tags": ["Reports"],
                "summary": "Report job status",
                "parameters": [
                    {"in": "path", "name": "id", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Unknown job", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/reports/download/{token}": {
            "get": {
                "tags": ["Reports"],
                "summary": "Download a finished export through its signed token",
                "produces": ["text/csv", "application/pdf"],
                "parameters": [
                    {"in": "path", "name": "token", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "File"},
                    "403": {"description": "Invalid or expired token", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "RegisterRequest": {
            "type": "object",
            "required": ["username", "password", "role"],
            "properties": {
                "name": {"type": "string"},
                "username": {"type": "string"},
                "password": {"type": "string"},
                "role": {"type": "string", "enum": ["admin", "student"]},
                "rollno": {"type": "string"},
                "class_id": {"type": "string"},
                "semester": {"type": "string"}
            }
        },
        "RegisterResponse": {
            "type": "object",
            "properties": {
                "user_id": {"type": "string"},
                "role": {"type": "string"},
                "message": {"type": "string"}
            }
        },
        "LoginRequest": {
            "type": "object",
            "required": ["username", "password"],
            "properties": {
                "username": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "LoginResponse": {
            "type": "object",
            "properties": {
                "user_id": {"type": "string"},
                "name": {"type": "string"},
                "username": {"type": "string"},
                "role": {"type": "string"},
                "rollno": {"type": "string"},
                "class_id": {"type": "string"},
                "semester": {"type": "string"},
                "message": {"type": "string"}
            }
        },
        "CreateSessionRequest": {
            "type": "object",
            "required": ["class_name", "class_code"],
            "properties": {
                "class_name": {"type": "string"},
                "class_code": {"type": "string"},
                "class_id": {"type": "string"},
                "date": {"type": "string", "format": "date"},
                "created_by": {"type": "string"}
            }
        },
        "CreateSessionResponse": {
            "type": "object",
            "properties": {
                "qr_token": {"type": "string"},
                "class_name": {"type": "string"},
                "class_code": {"type": "string"},
                "class_id": {"type": "string"},
                "created_at": {"type": "string", "format": "date-time"},
                "message": {"type": "string"}
            }
        },
        "MarkAttendanceRequest": {
            "type": "object",
            "required": ["student_id", "qr_token"],
            "properties": {
                "student_id": {"type": "string"},
                "qr_token": {"type": "string"}
            }
        },
        "MarkAttendanceResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string"},
                "already_marked": {"type": "boolean"},
                "record_id": {"type": "string"},
                "class_name": {"type": "string"},
                "class_code": {"type": "string"},
                "message": {"type": "string"}
            }
        },
        "UpdateAttendanceRequest": {
            "type": "object",
            "required": ["record_id", "status"],
            "properties": {
                "record_id": {"type": "string"},
                "status": {"type": "string", "enum": ["Present", "Absent"]}
            }
        },
        "StudentStatsResponse": {
            "type": "object",
            "properties": {
                "student_id": {"type": "string"},
                "total": {"type": "integer"},
                "attended": {"type": "integer"},
                "missed": {"type": "integer"},
                "percentage": {"type": "number"},
                "total_classes": {"type": "integer"}
            }
        },
        "AttendanceRecord": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "student_id": {"type": "string"},
                "student_name": {"type": "string"},
                "roll_no": {"type": "string"},
                "session_token": {"type": "string"},
                "class_name": {"type": "string"},
                "class_code": {"type": "string"},
                "status": {"type": "string"},
                "timestamp": {"type": "string", "format": "date-time"}
            }
        },
        "RosterStat": {
            "type": "object",
            "properties": {
                "student_id": {"type": "string"},
                "name": {"type": "string"},
                "rollno": {"type": "string"},
                "attended": {"type": "integer"},
                "total": {"type": "integer"},
                "missed": {"type": "integer"},
                "percentage": {"type": "number"}
            }
        },
        "RosterResponse": {
            "type": "object",
            "properties": {
                "records": {"type": "array", "items": {"$ref": "#/definitions/AttendanceRecord"}},
                "stats": {"type": "array", "items": {"$ref": "#/definitions/RosterStat"}},
                "current_qr_token": {"type": "string"}
            }
        },
        "ReportRequest": {
            "type": "object",
            "required": ["format"],
            "properties": {
                "type": {"type": "string", "enum": ["stats", "records"]},
                "format": {"type": "string", "enum": ["csv", "pdf"]},
                "class_id": {"type": "string"},
                "date": {"type": "string", "format": "date"},
                "created_by": {"type": "string"}
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
