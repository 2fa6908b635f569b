// Package docs registers the Swagger document served at /swagger.
// Regenerate with `swag init -g cmd/api/main.go` after changing annotations.
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
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "security": [{"BearerAuth": []}],
    "paths": {
        "/api/my-claims": {
            "get": {"tags": ["claims"], "summary": "List the caller's claims", "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["claims"], "summary": "File a claim", "responses": {"201": {"description": "Created"}, "400": {"description": "Validation"}, "403": {"description": "Policy not linked"}, "404": {"description": "Policy not found"}}}
        },
        "/api/my-claims/{claimId}": {
            "get": {"tags": ["claims"], "summary": "Get one of the caller's claims", "parameters": [{"name": "claimId", "in": "path", "required": true, "type": "string"}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not found"}}}
        },
        "/api/admin/pending-claims": {
            "get": {"tags": ["claims"], "summary": "List PENDING claims", "responses": {"200": {"description": "OK"}}}
        },
        "/api/admin/claims/{claimId}": {
            "get": {"tags": ["claims"], "summary": "Get a claim with its status log", "parameters": [{"name": "claimId", "in": "path", "required": true, "type": "string"}], "responses": {"200": {"description": "OK"}}},
            "patch": {"tags": ["claims"], "summary": "Approve or decline a claim", "parameters": [{"name": "claimId", "in": "path", "required": true, "type": "string"}], "responses": {"200": {"description": "OK"}, "409": {"description": "Already decided"}}}
        },
        "/api/admin/claims/{claimId}/advance": {
            "post": {"tags": ["engine"], "summary": "Run the claim's current workflow step", "parameters": [{"name": "claimId", "in": "path", "required": true, "type": "string"}], "responses": {"200": {"description": "OK"}}}
        },
        "/api/admin/claims/{claimId}/timers": {
            "get": {"tags": ["engine"], "summary": "List the claim's workflow timers", "parameters": [{"name": "claimId", "in": "path", "required": true, "type": "string"}], "responses": {"200": {"description": "OK"}}}
        },
        "/api/policy-catalog": {
            "get": {"tags": ["policies"], "summary": "List purchasable products", "responses": {"200": {"description": "OK"}}}
        },
        "/api/quote": {
            "post": {"tags": ["policies"], "summary": "Price a catalog product for a date of birth", "responses": {"200": {"description": "OK"}, "404": {"description": "Unknown product"}}}
        },
        "/api/my-policies": {
            "get": {"tags": ["policies"], "summary": "List the caller's policies", "responses": {"200": {"description": "OK"}}}
        },
        "/api/policies/purchase": {
            "post": {"tags": ["policies"], "summary": "Purchase a policy", "responses": {"201": {"description": "Created"}}}
        },
        "/api/policies/{policyId}/mock-activate": {
            "post": {"tags": ["policies"], "summary": "Pay for and activate an approved policy", "parameters": [{"name": "policyId", "in": "path", "required": true, "type": "string"}], "responses": {"200": {"description": "OK"}, "409": {"description": "Not awaiting payment"}}}
        },
        "/api/admin/pending-policies": {
            "get": {"tags": ["policies"], "summary": "List policies awaiting approval", "responses": {"200": {"description": "OK"}}}
        },
        "/api/admin/policies/{policyId}/approve": {
            "patch": {"tags": ["policies"], "summary": "Record an initial or final approval", "parameters": [{"name": "policyId", "in": "path", "required": true, "type": "string"}], "responses": {"200": {"description": "OK"}, "403": {"description": "Role or four-eyes violation"}}}
        },
        "/api/admin/workflows": {
            "get": {"tags": ["workflows"], "summary": "List workflow definitions", "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["workflows"], "summary": "Create a workflow definition", "responses": {"201": {"description": "Created"}}}
        },
        "/api/admin/workflows/{workflowId}/steps": {
            "get": {"tags": ["workflows"], "summary": "List a workflow's steps", "parameters": [{"name": "workflowId", "in": "path", "required": true, "type": "string"}], "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["workflows"], "summary": "Add a step", "parameters": [{"name": "workflowId", "in": "path", "required": true, "type": "string"}], "responses": {"201": {"description": "Created"}}}
        },
        "/api/notifications": {
            "get": {"tags": ["notifications"], "summary": "List the caller's notifications", "responses": {"200": {"description": "OK"}}}
        },
        "/api/alerts/highrisk": {
            "get": {"tags": ["reports"], "summary": "List high-risk claims", "responses": {"200": {"description": "OK"}}}
        },
        "/api/reports/overdue-tasks": {
            "get": {"tags": ["reports"], "summary": "List overdue claims (format=xlsx to download)", "responses": {"200": {"description": "OK"}}}
        },
        "/api/admin/audit-logs": {
            "get": {"tags": ["audit"], "summary": "List audit events", "responses": {"200": {"description": "OK"}}}
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Claims Workflow API",
	Description:      "Insurance claim filing, policy approval and workflow execution.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
