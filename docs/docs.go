// Package docs is generated by swaggo/swag from the handler annotations.
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
		"/expenses": {
			"post": {
				"security": [
					{
						"BearerAuth": []
					}
				],
				"produces": [
					"application/json"
				],
				"tags": [
					"Expenses"
				],
				"summary": "Record an expense",
				"operationId": "createExpense",
				"parameters": [
					{
						"type": "string",
						"description": "Client-generated key for safe retries",
						"name": "Idempotency-Key",
						"in": "header"
					},
					{
						"description": "Payload",
						"name": "body",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/handlers.ExpenseRequest"
						}
					}
				],
				"consumes": [
					"application/json"
				],
				"responses": {
					"201": {
						"description": "Created",
						"schema": {
							"$ref": "#/definitions/domain.Expense"
						}
					},
					"400": {
						"description": "Bad request",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					},
					"401": {
						"description": "Unauthorized",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					},
					"404": {
						"description": "Not found",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					},
					"500": {
						"description": "Internal error",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					}
				}
			},
			"get": {
				"security": [
					{
						"BearerAuth": []
					}
				],
				"produces": [
					"application/json"
				],
				"tags": [
					"Expenses"
				],
				"summary": "List expenses (paginated)",
				"operationId": "listExpenses",
				"parameters": [
					{
						"type": "string",
						"description": "First day (YYYY-MM-DD)",
						"name": "from",
						"in": "query"
					},
					{
						"type": "string",
						"description": "Last day (YYYY-MM-DD)",
						"name": "to",
						"in": "query"
					},
					{
						"type": "string",
						"description": "Category filter",
						"name": "category",
						"in": "query"
					},
					{
						"type": "integer",
						"description": "Page number",
						"name": "page",
						"in": "query"
					},
					{
						"type": "integer",
						"description": "Items per page",
						"name": "page_size",
						"in": "query"
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/handlers.ListExpensesResponse"
						}
					},
					"400": {
						"description": "Bad request",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					},
					"401": {
						"description": "Unauthorized",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					},
					"500": {
						"description": "Internal error",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					}
				}
			}
		},
		"/expenses/{id}": {
			"get": {
				"security": [
					{
						"BearerAuth": []
					}
				],
				"produces": [
					"application/json"
				],
				"tags": [
					"Expenses"
				],
				"summary": "Get an expense",
				"operationId": "getExpense",
				"parameters": [
					{
						"type": "string",
						"description": "Resource ID",
						"name": "id",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/domain.Expense"
						}
					},
					"401": {
						"description": "Unauthorized",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					},
					"404": {
						"description": "Not found",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					},
					"500": {
						"description": "Internal error",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					}
				}
			},
			"put": {
				"security": [
					{
						"BearerAuth": []
					}
				],
				"produces": [
					"application/json"
				],
				"tags": [
					"Expenses"
				],
				"summary": "Replace an expense",
				"operationId": "updateExpense",
				"parameters": [
					{
						"type": "string",
						"description": "Resource ID",
						"name": "id",
						"in": "path",
						"required": true
					},
					{
						"description": "Payload",
						"name": "body",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/handlers.ExpenseRequest"
						}
					}
				],
				"consumes": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/domain.Expense"
						}
					},
					"400": {
						"description": "Bad request",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					},
					"401": {
						"description": "Unauthorized",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					},
					"404": {
						"description": "Not found",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					},
					"500": {
						"description": "Internal error",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					}
				}
			},
			"delete": {
				"security": [
					{
						"BearerAuth": []
					}
				],
				"produces": [
					"application/json"
				],
				"tags": [
					"Expenses"
				],
				"summary": "Delete an expense",
				"operationId": "deleteExpense",
				"parameters": [
					{
						"type": "string",
						"description": "Resource ID",
						"name": "id",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"204": {
						"description": "No Content"
					},
					"401": {
						"description": "Unauthorized",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					},
					"404": {
						"description": "Not found",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					},
					"500": {
						"description": "Internal error",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					}
				}
			}
		},
		"/budgets": {
			"post": {
				"security": [
					{
						"BearerAuth": []
					}
				],
				"produces": [
					"application/json"
				],
				"tags": [
					"Budgets"
				],
				"summary": "Create a monthly budget",
				"operationId": "createBudget",
				"parameters": [
					{
						"description": "Payload",
						"name": "body",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/handlers.CreateBudgetRequest"
						}
					}
				],
				"consumes": [
					"application/json"
				],
				"responses": {
					"201": {
						"description": "Created",
						"schema": {
							"$ref": "#/definitions/domain.Budget"
						}
					},
					"400": {
						"description": "Bad request",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					},
					"401": {
						"description": "Unauthorized",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					},
					"409": {
						"description": "Conflict",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					},
					"500": {
						"description": "Internal error",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					}
				}
			},
			"get": {
				"security": [
					{
						"BearerAuth": []
					}
				],
				"produces": [
					"application/json"
				],
				"tags": [
					"Budgets"
				],
				"summary": "List budgets",
				"operationId": "listBudgets",
				"parameters": [
					{
						"type": "string",
						"description": "Month (YYYY-MM)",
						"name": "month",
						"in": "query"
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "array",
							"items": {
								"$ref": "#/definitions/domain.Budget"
							}
						}
					},
					"400": {
						"description": "Bad request",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					},
					"401": {
						"description": "Unauthorized",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					},
					"500": {
						"description": "Internal error",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					}
				}
			}
		},
		"/budgets/status": {
			"get": {
				"security": [
					{
						"BearerAuth": []
					}
				],
				"produces": [
					"application/json"
				],
				"tags": [
					"Budgets"
				],
				"summary": "Budget status for a month",
				"operationId": "budgetStatus",
				"parameters": [
					{
						"type": "string",
						"description": "Month (YYYY-MM); defaults to the current month",
						"name": "month",
						"in": "query"
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/handlers.BudgetStatusResponse"
						}
					},
					"400": {
						"description": "Bad request",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					},
					"401": {
						"description": "Unauthorized",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					},
					"500": {
						"description": "Internal error",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					}
				}
			}
		},
		"/budgets/{id}": {
			"put": {
				"security": [
					{
						"BearerAuth": []
					}
				],
				"produces": [
					"application/json"
				],
				"tags": [
					"Budgets"
				],
				"summary": "Change a budget limit",
				"operationId": "updateBudget",
				"parameters": [
					{
						"type": "string",
						"description": "Resource ID",
						"name": "id",
						"in": "path",
						"required": true
					},
					{
						"description": "Payload",
						"name": "body",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/handlers.UpdateBudgetRequest"
						}
					}
				],
				"consumes": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/domain.Budget"
						}
					},
					"400": {
						"description": "Bad request",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					},
					"401": {
						"description": "Unauthorized",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					},
					"404": {
						"description": "Not found",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					},
					"500": {
						"description": "Internal error",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					}
				}
			},
			"delete": {
				"security": [
					{
						"BearerAuth": []
					}
				],
				"produces": [
					"application/json"
				],
				"tags": [
					"Budgets"
				],
				"summary": "Delete a budget",
				"operationId": "deleteBudget",
				"parameters": [
					{
						"type": "string",
						"description": "Resource ID",
						"name": "id",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"204": {
						"description": "No Content"
					},
					"401": {
						"description": "Unauthorized",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					},
					"404": {
						"description": "Not found",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					},
					"500": {
						"description": "Internal error",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					}
				}
			}
		},
		"/savings": {
			"post": {
				"security": [
					{
						"BearerAuth": []
					}
				],
				"produces": [
					"application/json"
				],
				"tags": [
					"Savings"
				],
				"summary": "Create a savings goal",
				"operationId": "createSavingsGoal",
				"parameters": [
					{
						"description": "Payload",
						"name": "body",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/handlers.SavingsGoalRequest"
						}
					}
				],
				"consumes": [
					"application/json"
				],
				"responses": {
					"201": {
						"description": "Created",
						"schema": {
							"$ref": "#/definitions/domain.SavingsGoal"
						}
					},
					"400": {
						"description": "Bad request",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					},
					"401": {
						"description": "Unauthorized",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					},
					"500": {
						"description": "Internal error",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					}
				}
			},
			"get": {
				"security": [
					{
						"BearerAuth": []
					}
				],
				"produces": [
					"application/json"
				],
				"tags": [
					"Savings"
				],
				"summary": "List savings goals",
				"operationId": "listSavingsGoals",
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "array",
							"items": {
								"$ref": "#/definitions/domain.SavingsGoal"
							}
						}
					},
					"401": {
						"description": "Unauthorized",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					},
					"500": {
						"description": "Internal error",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					}
				}
			}
		},
		"/savings/{id}": {
			"put": {
				"security": [
					{
						"BearerAuth": []
					}
				],
				"produces": [
					"application/json"
				],
				"tags": [
					"Savings"
				],
				"summary": "Replace a savings goal",
				"operationId": "updateSavingsGoal",
				"parameters": [
					{
						"type": "string",
						"description": "Resource ID",
						"name": "id",
						"in": "path",
						"required": true
					},
					{
						"description": "Payload",
						"name": "body",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/handlers.SavingsGoalRequest"
						}
					}
				],
				"consumes": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/domain.SavingsGoal"
						}
					},
					"400": {
						"description": "Bad request",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					},
					"401": {
						"description": "Unauthorized",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					},
					"404": {
						"description": "Not found",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					},
					"500": {
						"description": "Internal error",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					}
				}
			},
			"delete": {
				"security": [
					{
						"BearerAuth": []
					}
				],
				"produces": [
					"application/json"
				],
				"tags": [
					"Savings"
				],
				"summary": "Delete a savings goal",
				"operationId": "deleteSavingsGoal",
				"parameters": [
					{
						"type": "string",
						"description": "Resource ID",
						"name": "id",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"204": {
						"description": "No Content"
					},
					"401": {
						"description": "Unauthorized",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					},
					"404": {
						"description": "Not found",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					},
					"500": {
						"description": "Internal error",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					}
				}
			}
		},
		"/savings/{id}/contributions": {
			"post": {
				"security": [
					{
						"BearerAuth": []
					}
				],
				"produces": [
					"application/json"
				],
				"tags": [
					"Savings"
				],
				"summary": "Add a contribution",
				"operationId": "contributeSavingsGoal",
				"parameters": [
					{
						"type": "string",
						"description": "Resource ID",
						"name": "id",
						"in": "path",
						"required": true
					},
					{
						"description": "Payload",
						"name": "body",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/handlers.ContributionRequest"
						}
					}
				],
				"consumes": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/domain.SavingsGoal"
						}
					},
					"400": {
						"description": "Bad request",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					},
					"401": {
						"description": "Unauthorized",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					},
					"404": {
						"description": "Not found",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					},
					"500": {
						"description": "Internal error",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					}
				}
			}
		},
		"/reminders": {
			"post": {
				"security": [
					{
						"BearerAuth": []
					}
				],
				"produces": [
					"application/json"
				],
				"tags": [
					"Reminders"
				],
				"summary": "Create a payment reminder",
				"operationId": "createReminder",
				"parameters": [
					{
						"type": "string",
						"description": "Client-generated key for safe retries",
						"name": "Idempotency-Key",
						"in": "header"
					},
					{
						"description": "Payload",
						"name": "body",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/handlers.ReminderRequest"
						}
					}
				],
				"consumes": [
					"application/json"
				],
				"responses": {
					"201": {
						"description": "Created",
						"schema": {
							"$ref": "#/definitions/domain.Reminder"
						}
					},
					"400": {
						"description": "Bad request",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					},
					"401": {
						"description": "Unauthorized",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					},
					"500": {
						"description": "Internal error",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					}
				}
			},
			"get": {
				"security": [
					{
						"BearerAuth": []
					}
				],
				"produces": [
					"application/json"
				],
				"tags": [
					"Reminders"
				],
				"summary": "List reminders",
				"operationId": "listReminders",
				"parameters": [
					{
						"type": "string",
						"description": "PENDING or PAID",
						"name": "status",
						"in": "query"
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "array",
							"items": {
								"$ref": "#/definitions/domain.Reminder"
							}
						}
					},
					"400": {
						"description": "Bad request",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					},
					"401": {
						"description": "Unauthorized",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					},
					"500": {
						"description": "Internal error",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					}
				}
			}
		},
		"/reminders/process": {
			"post": {
				"security": [
					{
						"BearerAuth": []
					}
				],
				"produces": [
					"application/json"
				],
				"tags": [
					"Reminders"
				],
				"summary": "Run notifications for the caller's reminders",
				"operationId": "processMyReminders",
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/handlers.ProcessResponse"
						}
					},
					"401": {
						"description": "Unauthorized",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					},
					"500": {
						"description": "Internal error",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					}
				}
			}
		},
		"/reminders/{id}": {
			"get": {
				"security": [
					{
						"BearerAuth": []
					}
				],
				"produces": [
					"application/json"
				],
				"tags": [
					"Reminders"
				],
				"summary": "Get a reminder",
				"operationId": "getReminder",
				"parameters": [
					{
						"type": "string",
						"description": "Resource ID",
						"name": "id",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/domain.Reminder"
						}
					},
					"401": {
						"description": "Unauthorized",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					},
					"404": {
						"description": "Not found",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					},
					"500": {
						"description": "Internal error",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					}
				}
			},
			"put": {
				"security": [
					{
						"BearerAuth": []
					}
				],
				"produces": [
					"application/json"
				],
				"tags": [
					"Reminders"
				],
				"summary": "Replace a reminder",
				"operationId": "updateReminder",
				"parameters": [
					{
						"type": "string",
						"description": "Resource ID",
						"name": "id",
						"in": "path",
						"required": true
					},
					{
						"description": "Payload",
						"name": "body",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/handlers.ReminderRequest"
						}
					}
				],
				"consumes": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/domain.Reminder"
						}
					},
					"400": {
						"description": "Bad request",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					},
					"401": {
						"description": "Unauthorized",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					},
					"404": {
						"description": "Not found",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					},
					"500": {
						"description": "Internal error",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					}
				}
			},
			"delete": {
				"security": [
					{
						"BearerAuth": []
					}
				],
				"produces": [
					"application/json"
				],
				"tags": [
					"Reminders"
				],
				"summary": "Delete a reminder",
				"operationId": "deleteReminder",
				"parameters": [
					{
						"type": "string",
						"description": "Resource ID",
						"name": "id",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"204": {
						"description": "No Content"
					},
					"401": {
						"description": "Unauthorized",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					},
					"404": {
						"description": "Not found",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					},
					"500": {
						"description": "Internal error",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					}
				}
			}
		},
		"/reminders/{id}/paid": {
			"post": {
				"security": [
					{
						"BearerAuth": []
					}
				],
				"produces": [
					"application/json"
				],
				"tags": [
					"Reminders"
				],
				"summary": "Mark a reminder paid",
				"operationId": "markReminderPaid",
				"parameters": [
					{
						"type": "string",
						"description": "Resource ID",
						"name": "id",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/handlers.MarkPaidResponse"
						}
					},
					"401": {
						"description": "Unauthorized",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					},
					"404": {
						"description": "Not found",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					},
					"409": {
						"description": "Conflict",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					},
					"500": {
						"description": "Internal error",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					}
				}
			}
		},
		"/reminders/{id}/send": {
			"post": {
				"security": [
					{
						"BearerAuth": []
					}
				],
				"produces": [
					"application/json"
				],
				"tags": [
					"Reminders"
				],
				"summary": "Send a reminder e-mail now",
				"operationId": "sendReminder",
				"parameters": [
					{
						"type": "string",
						"description": "Resource ID",
						"name": "id",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/services.ReminderResult"
						}
					},
					"401": {
						"description": "Unauthorized",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					},
					"404": {
						"description": "Not found",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					},
					"409": {
						"description": "Conflict",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					},
					"500": {
						"description": "Internal error",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					}
				}
			}
		},
		"/analysis": {
			"post": {
				"security": [
					{
						"BearerAuth": []
					}
				],
				"produces": [
					"application/json"
				],
				"tags": [
					"Analysis"
				],
				"summary": "AI analysis of the caller's finances",
				"operationId": "analyze",
				"parameters": [
					{
						"description": "Payload",
						"name": "body",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/handlers.AnalysisRequest"
						}
					}
				],
				"consumes": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/handlers.AnalysisResponse"
						}
					},
					"400": {
						"description": "Bad request",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					},
					"401": {
						"description": "Unauthorized",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					},
					"429": {
						"description": "Quota exceeded",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					},
					"500": {
						"description": "Internal error",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					},
					"502": {
						"description": "Model unavailable",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					}
				}
			}
		}
	},
	"definitions": {
		"domain.Budget": {
			"type": "object",
			"properties": {
				"id": {
					"type": "string"
				},
				"user_id": {
					"type": "string"
				},
				"category": {
					"type": "string"
				},
				"month": {
					"type": "string"
				},
				"limit": {
					"type": "string"
				},
				"created_at": {
					"type": "string"
				},
				"updated_at": {
					"type": "string"
				}
			}
		},
		"domain.Expense": {
			"type": "object",
			"properties": {
				"id": {
					"type": "string"
				},
				"user_id": {
					"type": "string"
				},
				"amount": {
					"type": "string"
				},
				"category": {
					"type": "string"
				},
				"description": {
					"type": "string"
				},
				"date": {
					"type": "string"
				},
				"created_at": {
					"type": "string"
				},
				"updated_at": {
					"type": "string"
				}
			}
		},
		"domain.Reminder": {
			"type": "object",
			"properties": {
				"id": {
					"type": "string"
				},
				"user_id": {
					"type": "string"
				},
				"title": {
					"type": "string"
				},
				"amount": {
					"type": "string"
				},
				"due_date": {
					"type": "string"
				},
				"category": {
					"type": "string"
				},
				"status": {
					"type": "string",
					"enum": [
						"PENDING",
						"PAID"
					]
				},
				"is_recurring": {
					"type": "boolean"
				},
				"frequency": {
					"type": "string",
					"enum": [
						"WEEKLY",
						"MONTHLY",
						"YEARLY"
					]
				},
				"last_sent_at": {
					"type": "string"
				},
				"created_at": {
					"type": "string"
				},
				"updated_at": {
					"type": "string"
				}
			}
		},
		"domain.SavingsGoal": {
			"type": "object",
			"properties": {
				"id": {
					"type": "string"
				},
				"user_id": {
					"type": "string"
				},
				"name": {
					"type": "string"
				},
				"target_amount": {
					"type": "string"
				},
				"current_amount": {
					"type": "string"
				},
				"deadline": {
					"type": "string"
				},
				"created_at": {
					"type": "string"
				},
				"updated_at": {
					"type": "string"
				}
			}
		},
		"handlers.AnalysisRequest": {
			"type": "object",
			"properties": {
				"prompt": {
					"type": "string",
					"example": "Where can I cut spending this month?"
				}
			}
		},
		"handlers.AnalysisResponse": {
			"type": "object",
			"properties": {
				"analysis": {
					"type": "string"
				}
			}
		},
		"handlers.BudgetStatusResponse": {
			"type": "object",
			"properties": {
				"month": {
					"type": "string"
				},
				"statuses": {
					"type": "array",
					"items": {
						"$ref": "#/definitions/services.BudgetStatus"
					}
				}
			}
		},
		"handlers.ContributionRequest": {
			"type": "object",
			"properties": {
				"amount": {
					"type": "string",
					"example": "250"
				}
			}
		},
		"handlers.CreateBudgetRequest": {
			"type": "object",
			"properties": {
				"category": {
					"type": "string",
					"example": "Groceries"
				},
				"month": {
					"type": "string",
					"example": "2026-10"
				},
				"limit": {
					"type": "string",
					"example": "400"
				}
			}
		},
		"handlers.ErrorResponse": {
			"type": "object",
			"properties": {
				"request_id": {
					"type": "string",
					"example": "123e4567-e89b-12d3-a456-426614174000"
				},
				"code": {
					"type": "string",
					"example": "not_found"
				},
				"message": {
					"type": "string",
					"example": "expense not found"
				}
			}
		},
		"handlers.ExpenseRequest": {
			"type": "object",
			"properties": {
				"amount": {
					"type": "string",
					"example": "12.50"
				},
				"category": {
					"type": "string",
					"example": "Groceries"
				},
				"description": {
					"type": "string",
					"example": "weekly shop"
				},
				"date": {
					"type": "string",
					"example": "2026-10-15"
				}
			}
		},
		"handlers.ListExpensesResponse": {
			"type": "object",
			"properties": {
				"expenses": {
					"type": "array",
					"items": {
						"$ref": "#/definitions/domain.Expense"
					}
				},
				"pagination": {
					"$ref": "#/definitions/handlers.Pagination"
				}
			}
		},
		"handlers.MarkPaidResponse": {
			"type": "object",
			"properties": {
				"paid": {
					"$ref": "#/definitions/domain.Reminder"
				},
				"next": {
					"$ref": "#/definitions/domain.Reminder"
				}
			}
		},
		"handlers.Pagination": {
			"type": "object",
			"properties": {
				"page": {
					"type": "integer"
				},
				"page_size": {
					"type": "integer"
				},
				"total": {
					"type": "integer"
				},
				"total_pages": {
					"type": "integer"
				},
				"has_next": {
					"type": "boolean"
				}
			}
		},
		"handlers.ProcessResponse": {
			"type": "object",
			"properties": {
				"processed": {
					"type": "integer"
				},
				"sent": {
					"type": "integer"
				},
				"skipped": {
					"type": "integer"
				},
				"failed": {
					"type": "integer"
				},
				"errors": {
					"type": "integer"
				},
				"results": {
					"type": "array",
					"items": {
						"$ref": "#/definitions/services.ReminderResult"
					}
				}
			}
		},
		"handlers.ReminderRequest": {
			"type": "object",
			"properties": {
				"title": {
					"type": "string",
					"example": "Rent"
				},
				"amount": {
					"type": "string",
					"example": "950.00"
				},
				"due_date": {
					"type": "string",
					"example": "2026-11-01"
				},
				"category": {
					"type": "string",
					"example": "Housing"
				},
				"is_recurring": {
					"type": "boolean"
				},
				"frequency": {
					"type": "string",
					"example": "MONTHLY"
				}
			}
		},
		"handlers.SavingsGoalRequest": {
			"type": "object",
			"properties": {
				"name": {
					"type": "string",
					"example": "Emergency fund"
				},
				"target_amount": {
					"type": "string",
					"example": "5000"
				},
				"deadline": {
					"type": "string",
					"example": "2027-06-30"
				}
			}
		},
		"handlers.UpdateBudgetRequest": {
			"type": "object",
			"properties": {
				"limit": {
					"type": "string",
					"example": "450"
				}
			}
		},
		"services.BudgetStatus": {
			"type": "object",
			"properties": {
				"budget": {
					"$ref": "#/definitions/domain.Budget"
				},
				"spent": {
					"type": "string"
				},
				"remaining": {
					"type": "string"
				},
				"percentage": {
					"type": "number"
				},
				"over_budget": {
					"type": "boolean"
				}
			}
		},
		"services.ReminderResult": {
			"type": "object",
			"properties": {
				"id": {
					"type": "string"
				},
				"outcome": {
					"type": "string",
					"enum": [
						"sent",
						"skipped",
						"failed",
						"error"
					]
				},
				"days_until_due": {
					"type": "integer"
				},
				"error": {
					"type": "string"
				}
			}
		}
	},
	"securityDefinitions": {
		"BearerAuth": {
			"description": "HS256 JWT as \"Bearer <token>\"",
			"type": "apiKey",
			"name": "Authorization",
			"in": "header"
		},
		"CronSecret": {
			"description": "Scheduler secret as \"Bearer <CRON_SECRET>\"",
			"type": "apiKey",
			"name": "Authorization",
			"in": "header"
		}
	}
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:		  "1.0",
	Host:			 "",
	BasePath:		 "/api/v1",
	Schemes:		  []string{},
	Title:			"MoneyWise API",
	Description:	  "Personal finance API: expenses, budgets, savings goals, payment reminders and AI analysis.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:		"{{",
	RightDelim:	   "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
