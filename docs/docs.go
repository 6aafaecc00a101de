// Package docs 由 handler 上的 swag 註解產生
// 修改註解後執行 swag init -g cmd/service/service.go -o docs 重新產生
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
        "/admin/backup": {
            "post": {
                "security": [
                    {
                        "ApiKeyAuth": []
                    }
                ],
                "description": "將所有設備與 uploads 圖片打包為 zip 存入備份目錄",
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "admin"
                ],
                "summary": "Create backup",
                "responses": {
                    "201": {
                        "description": "Created",
                        "schema": {
                            "$ref": "#/definitions/inventory.BackupResult"
                        }
                    },
                    "500": {
                        "description": "Internal Server Error",
                        "schema": {
                            "$ref": "#/definitions/api.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/admin/backups": {
            "get": {
                "security": [
                    {
                        "ApiKeyAuth": []
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "admin"
                ],
                "summary": "List backups",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "array",
                            "items": {
                                "$ref": "#/definitions/inventory.BackupFile"
                            }
                        }
                    },
                    "500": {
                        "description": "Internal Server Error",
                        "schema": {
                            "$ref": "#/definitions/api.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/admin/backups/{name}": {
            "get": {
                "security": [
                    {
                        "ApiKeyAuth": []
                    }
                ],
                "produces": [
                    "application/zip"
                ],
                "tags": [
                    "admin"
                ],
                "summary": "Download backup",
                "parameters": [
                    {
                        "type": "string",
                        "description": "備份檔名",
                        "name": "name",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "file"
                        }
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {
                            "$ref": "#/definitions/api.ErrorResponse"
                        }
                    },
                    "404": {
                        "description": "Not Found",
                        "schema": {
                            "$ref": "#/definitions/api.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/admin/clear": {
            "post": {
                "security": [
                    {
                        "ApiKeyAuth": []
                    }
                ],
                "description": "刪除所有設備並重設編號",
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "admin"
                ],
                "summary": "Clear equipment",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/admin.ClearResponse"
                        }
                    },
                    "500": {
                        "description": "Internal Server Error",
                        "schema": {
                            "$ref": "#/definitions/api.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/admin/restore": {
            "post": {
                "security": [
                    {
                        "ApiKeyAuth": []
                    }
                ],
                "description": "上傳 zip 備份、完整備份 JSON 或設備陣列；clear=true 先清空現有設備",
                "consumes": [
                    "multipart/form-data"
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "admin"
                ],
                "summary": "Restore backup",
                "parameters": [
                    {
                        "type": "file",
                        "description": "備份檔",
                        "name": "file",
                        "in": "formData",
                        "required": true
                    },
                    {
                        "type": "boolean",
                        "description": "還原前清空設備",
                        "name": "clear",
                        "in": "formData"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/inventory.RestoreResult"
                        }
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {
                            "$ref": "#/definitions/api.ErrorResponse"
                        }
                    },
                    "500": {
                        "description": "Internal Server Error",
                        "schema": {
                            "$ref": "#/definitions/api.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/admin/users": {
            "get": {
                "security": [
                    {
                        "ApiKeyAuth": []
                    }
                ],
                "description": "依建立時間由新到舊列出所有使用者",
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "admin-users"
                ],
                "summary": "List users",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "array",
                            "items": {
                                "$ref": "#/definitions/api.UserResponse"
                            }
                        }
                    },
                    "500": {
                        "description": "Internal Server Error",
                        "schema": {
                            "$ref": "#/definitions/api.ErrorResponse"
                        }
                    }
                }
            },
            "post": {
                "security": [
                    {
                        "ApiKeyAuth": []
                    }
                ],
                "description": "建立 pending 帳號、產生設定密碼 token，並在背景寄出邀請信 (Email 會自動轉小寫)",
                "consumes": [
                    "application/json"
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "admin-users"
                ],
                "summary": "Create a new user",
                "parameters": [
                    {
                        "description": "使用者資料",
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/api.CreateUserRequest"
                        }
                    }
                ],
                "responses": {
                    "201": {
                        "description": "Created",
                        "schema": {
                            "$ref": "#/definitions/api.CreateUserResponse"
                        }
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {
                            "$ref": "#/definitions/api.ErrorResponse"
                        }
                    },
                    "500": {
                        "description": "Internal Server Error",
                        "schema": {
                            "$ref": "#/definitions/api.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/admin/users/{id}": {
            "get": {
                "security": [
                    {
                        "ApiKeyAuth": []
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "admin-users"
                ],
                "summary": "Get a user by ID",
                "parameters": [
                    {
                        "type": "integer",
                        "description": "使用者 ID",
                        "name": "id",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/api.UserResponse"
                        }
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {
                            "$ref": "#/definitions/api.ErrorResponse"
                        }
                    },
                    "404": {
                        "description": "Not Found",
                        "schema": {
                            "$ref": "#/definitions/api.ErrorResponse"
                        }
                    },
                    "500": {
                        "description": "Internal Server Error",
                        "schema": {
                            "$ref": "#/definitions/api.ErrorResponse"
                        }
                    }
                }
            },
            "put": {
                "security": [
                    {
                        "ApiKeyAuth": []
                    }
                ],
                "description": "更新個人資料、角色、實驗室與狀態；管理員不可變更自己的角色或狀態",
                "consumes": [
                    "application/json"
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "admin-users"
                ],
                "summary": "Update a user by ID",
                "parameters": [
                    {
                        "type": "integer",
                        "description": "使用者 ID",
                        "name": "id",
                        "in": "path",
                        "required": true
                    },
                    {
                        "description": "使用者資料",
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/api.UpdateUserRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/api.UserResponse"
                        }
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {
                            "$ref": "#/definitions/api.ErrorResponse"
                        }
                    },
                    "404": {
                        "description": "Not Found",
                        "schema": {
                            "$ref": "#/definitions/api.ErrorResponse"
                        }
                    },
                    "500": {
                        "description": "Internal Server Error",
                        "schema": {
                            "$ref": "#/definitions/api.ErrorResponse"
                        }
                    }
                }
            },
            "delete": {
                "security": [
                    {
                        "ApiKeyAuth": []
                    }
                ],
                "description": "刪除使用者帳號，不可刪除自己",
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "admin-users"
                ],
                "summary": "Delete a user by ID",
                "parameters": [
                    {
                        "type": "integer",
                        "description": "使用者 ID",
                        "name": "id",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/api.MessageResponse"
                        }
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {
                            "$ref": "#/definitions/api.ErrorResponse"
                        }
                    },
                    "404": {
                        "description": "Not Found",
                        "schema": {
                            "$ref": "#/definitions/api.ErrorResponse"
                        }
                    },
                    "500": {
                        "description": "Internal Server Error",
                        "schema": {
                            "$ref": "#/definitions/api.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/admin/users/{id}/reset-setup": {
            "post": {
                "security": [
                    {
                        "ApiKeyAuth": []
                    }
                ],
                "description": "重新產生設定密碼 token 並再次寄出邀請信",
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "admin-users"
                ],
                "summary": "Reissue setup link",
                "parameters": [
                    {
                        "type": "integer",
                        "description": "使用者 ID",
                        "name": "id",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/api.CreateUserResponse"
                        }
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {
                            "$ref": "#/definitions/api.ErrorResponse"
                        }
                    },
                    "404": {
                        "description": "Not Found",
                        "schema": {
                            "$ref": "#/definitions/api.ErrorResponse"
                        }
                    },
                    "500": {
                        "description": "Internal Server Error",
                        "schema": {
                            "$ref": "#/definitions/api.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/auth/login": {
            "post": {
                "description": "只有 active 狀態的帳號可以登入，回傳存取令牌與使用者資訊",
                "consumes": [
                    "application/json",
                    "application/x-www-form-urlencoded"
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "auth"
                ],
                "summary": "登入使用者",
                "parameters": [
                    {
                        "description": "登入資料",
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/api.LoginRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/api.LoginResponse"
                        }
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {
                            "$ref": "#/definitions/api.ErrorResponse"
                        }
                    },
                    "401": {
                        "description": "Unauthorized",
                        "schema": {
                            "$ref": "#/definitions/api.ErrorResponse"
                        }
                    },
                    "500": {
                        "description": "Internal Server Error",
                        "schema": {
                            "$ref": "#/definitions/api.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/auth/logout": {
            "post": {
                "security": [
                    {
                        "ApiKeyAuth": []
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "auth"
                ],
                "summary": "Logout",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/api.MessageResponse"
                        }
                    },
                    "401": {
                        "description": "Unauthorized",
                        "schema": {
                            "$ref": "#/definitions/api.ErrorResponse"
                        }
                    },
                    "500": {
                        "description": "Internal Server Error",
                        "schema": {
                            "$ref": "#/definitions/api.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/auth/password": {
            "put": {
                "security": [
                    {
                        "ApiKeyAuth": []
                    }
                ],
                "consumes": [
                    "application/json",
                    "application/x-www-form-urlencoded"
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "auth"
                ],
                "summary": "Update own password",
                "parameters": [
                    {
                        "description": "舊密碼與新密碼",
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/api.ChangePasswordRequest"
                        }
                    }
                ],
                "responses": {
                    "204": {
                        "description": "No Content"
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {
                            "$ref": "#/definitions/api.ErrorResponse"
                        }
                    },
                    "401": {
                        "description": "Unauthorized",
                        "schema": {
                            "$ref": "#/definitions/api.ErrorResponse"
                        }
                    },
                    "500": {
                        "description": "Internal Server Error",
                        "schema": {
                            "$ref": "#/definitions/api.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/auth/setup-info": {
            "get": {
                "description": "回傳 token 對應帳號的姓名、Email、角色與實驗室",
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "auth"
                ],
                "summary": "Setup info",
                "parameters": [
                    {
                        "type": "string",
                        "description": "設定密碼 token",
                        "name": "token",
                        "in": "query",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/api.SetupInfoResponse"
                        }
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {
                            "$ref": "#/definitions/api.ErrorResponse"
                        }
                    },
                    "500": {
                        "description": "Internal Server Error",
                        "schema": {
                            "$ref": "#/definitions/api.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/auth/setup-password": {
            "post": {
                "consumes": [
                    "application/json"
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "auth"
                ],
                "summary": "Setup password",
                "parameters": [
                    {
                        "description": "token 與新密碼",
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/api.SetupPasswordRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/api.MessageResponse"
                        }
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {
                            "$ref": "#/definitions/api.ErrorResponse"
                        }
                    },
                    "500": {
                        "description": "Internal Server Error",
                        "schema": {
                            "$ref": "#/definitions/api.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/auth/verify": {
            "get": {
                "security": [
                    {
                        "ApiKeyAuth": []
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "auth"
                ],
                "summary": "Verify token",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/api.VerifyResponse"
                        }
                    },
                    "401": {
                        "description": "Unauthorized",
                        "schema": {
                            "$ref": "#/definitions/api.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/equipment": {
            "get": {
                "security": [
                    {
                        "ApiKeyAuth": []
                    }
                ],
                "description": "依使用者授權的實驗室過濾，支援 lab、status 與關鍵字搜尋",
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "equipment"
                ],
                "summary": "List equipment",
                "parameters": [
                    {
                        "type": "string",
                        "description": "實驗室代碼",
                        "name": "lab",
                        "in": "query"
                    },
                    {
                        "type": "string",
                        "description": "設備狀態",
                        "name": "status",
                        "in": "query"
                    },
                    {
                        "type": "string",
                        "description": "名稱、品牌、型號、序號、FIU ID 或備註",
                        "name": "search",
                        "in": "query"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "array",
                            "items": {
                                "$ref": "#/definitions/api.EquipmentResponse"
                            }
                        }
                    },
                    "401": {
                        "description": "Unauthorized",
                        "schema": {
                            "$ref": "#/definitions/api.ErrorResponse"
                        }
                    },
                    "403": {
                        "description": "Forbidden",
                        "schema": {
                            "$ref": "#/definitions/api.ErrorResponse"
                        }
                    },
                    "500": {
                        "description": "Internal Server Error",
                        "schema": {
                            "$ref": "#/definitions/api.ErrorResponse"
                        }
                    }
                }
            },
            "post": {
                "security": [
                    {
                        "ApiKeyAuth": []
                    }
                ],
                "description": "multipart 表單或 JSON；image 欄位為選填圖片 (最大 10MB)",
                "consumes": [
                    "multipart/form-data",
                    "application/json"
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "equipment"
                ],
                "summary": "Create equipment",
                "parameters": [
                    {
                        "description": "設備資料",
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/api.EquipmentRequest"
                        }
                    },
                    {
                        "type": "file",
                        "description": "設備圖片",
                        "name": "image",
                        "in": "formData"
                    }
                ],
                "responses": {
                    "201": {
                        "description": "Created",
                        "schema": {
                            "$ref": "#/definitions/api.EquipmentResponse"
                        }
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {
                            "$ref": "#/definitions/api.ErrorResponse"
                        }
                    },
                    "403": {
                        "description": "Forbidden",
                        "schema": {
                            "$ref": "#/definitions/api.ErrorResponse"
                        }
                    },
                    "500": {
                        "description": "Internal Server Error",
                        "schema": {
                            "$ref": "#/definitions/api.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/equipment/report": {
            "get": {
                "security": [
                    {
                        "ApiKeyAuth": []
                    }
                ],
                "description": "各狀態與實驗室的設備數量",
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "equipment"
                ],
                "summary": "Inventory report",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/inventory.Report"
                        }
                    },
                    "500": {
                        "description": "Internal Server Error",
                        "schema": {
                            "$ref": "#/definitions/api.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/equipment/{id}": {
            "get": {
                "security": [
                    {
                        "ApiKeyAuth": []
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "equipment"
                ],
                "summary": "Get equipment by ID",
                "parameters": [
                    {
                        "type": "integer",
                        "description": "設備 ID",
                        "name": "id",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/api.EquipmentResponse"
                        }
                    },
                    "403": {
                        "description": "Forbidden",
                        "schema": {
                            "$ref": "#/definitions/api.ErrorResponse"
                        }
                    },
                    "404": {
                        "description": "Not Found",
                        "schema": {
                            "$ref": "#/definitions/api.ErrorResponse"
                        }
                    },
                    "500": {
                        "description": "Internal Server Error",
                        "schema": {
                            "$ref": "#/definitions/api.ErrorResponse"
                        }
                    }
                }
            },
            "put": {
                "security": [
                    {
                        "ApiKeyAuth": []
                    }
                ],
                "description": "上傳新圖片會取代原圖；keepImage=true 時保留目前圖片，否則清除",
                "consumes": [
                    "multipart/form-data",
                    "application/json"
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "equipment"
                ],
                "summary": "Update equipment",
                "parameters": [
                    {
                        "type": "integer",
                        "description": "設備 ID",
                        "name": "id",
                        "in": "path",
                        "required": true
                    },
                    {
                        "description": "設備資料",
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/api.EquipmentRequest"
                        }
                    },
                    {
                        "type": "file",
                        "description": "設備圖片",
                        "name": "image",
                        "in": "formData"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/api.EquipmentResponse"
                        }
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {
                            "$ref": "#/definitions/api.ErrorResponse"
                        }
                    },
                    "403": {
                        "description": "Forbidden",
                        "schema": {
                            "$ref": "#/definitions/api.ErrorResponse"
                        }
                    },
                    "404": {
                        "description": "Not Found",
                        "schema": {
                            "$ref": "#/definitions/api.ErrorResponse"
                        }
                    },
                    "500": {
                        "description": "Internal Server Error",
                        "schema": {
                            "$ref": "#/definitions/api.ErrorResponse"
                        }
                    }
                }
            },
            "delete": {
                "security": [
                    {
                        "ApiKeyAuth": []
                    }
                ],
                "description": "刪除設備並移除 uploads 目錄中的圖片，圖片不存在不視為錯誤",
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "equipment"
                ],
                "summary": "Delete equipment",
                "parameters": [
                    {
                        "type": "integer",
                        "description": "設備 ID",
                        "name": "id",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/api.MessageResponse"
                        }
                    },
                    "403": {
                        "description": "Forbidden",
                        "schema": {
                            "$ref": "#/definitions/api.ErrorResponse"
                        }
                    },
                    "404": {
                        "description": "Not Found",
                        "schema": {
                            "$ref": "#/definitions/api.ErrorResponse"
                        }
                    },
                    "500": {
                        "description": "Internal Server Error",
                        "schema": {
                            "$ref": "#/definitions/api.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/equipment/{id}/barcode": {
            "get": {
                "security": [
                    {
                        "ApiKeyAuth": []
                    }
                ],
                "description": "以 PNG 回傳序號的 Code128 條碼",
                "produces": [
                    "image/png"
                ],
                "tags": [
                    "labels"
                ],
                "summary": "Equipment barcode",
                "parameters": [
                    {
                        "type": "integer",
                        "description": "設備 ID",
                        "name": "id",
                        "in": "path",
                        "required": true
                    },
                    {
                        "type": "integer",
                        "description": "寬度 (px)",
                        "name": "width",
                        "in": "query"
                    },
                    {
                        "type": "integer",
                        "description": "高度 (px)",
                        "name": "height",
                        "in": "query"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "file"
                        }
                    },
                    "403": {
                        "description": "Forbidden",
                        "schema": {
                            "$ref": "#/definitions/api.ErrorResponse"
                        }
                    },
                    "404": {
                        "description": "Not Found",
                        "schema": {
                            "$ref": "#/definitions/api.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/equipment/{id}/image": {
            "put": {
                "security": [
                    {
                        "ApiKeyAuth": []
                    }
                ],
                "description": "只更新圖片路徑 (還原圖片時使用)；空字串清除圖片",
                "consumes": [
                    "application/json"
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "equipment"
                ],
                "summary": "Update equipment image",
                "parameters": [
                    {
                        "type": "integer",
                        "description": "設備 ID",
                        "name": "id",
                        "in": "path",
                        "required": true
                    },
                    {
                        "description": "圖片路徑",
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/api.ImageRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/api.MessageResponse"
                        }
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {
                            "$ref": "#/definitions/api.ErrorResponse"
                        }
                    },
                    "403": {
                        "description": "Forbidden",
                        "schema": {
                            "$ref": "#/definitions/api.ErrorResponse"
                        }
                    },
                    "404": {
                        "description": "Not Found",
                        "schema": {
                            "$ref": "#/definitions/api.ErrorResponse"
                        }
                    },
                    "500": {
                        "description": "Internal Server Error",
                        "schema": {
                            "$ref": "#/definitions/api.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/equipment/{id}/qrcode": {
            "get": {
                "security": [
                    {
                        "ApiKeyAuth": []
                    }
                ],
                "description": "以 PNG 回傳設備摘要的 QR code",
                "produces": [
                    "image/png"
                ],
                "tags": [
                    "labels"
                ],
                "summary": "Equipment QR code",
                "parameters": [
                    {
                        "type": "integer",
                        "description": "設備 ID",
                        "name": "id",
                        "in": "path",
                        "required": true
                    },
                    {
                        "type": "integer",
                        "description": "邊長 (px)",
                        "name": "size",
                        "in": "query"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "file"
                        }
                    },
                    "403": {
                        "description": "Forbidden",
                        "schema": {
                            "$ref": "#/definitions/api.ErrorResponse"
                        }
                    },
                    "404": {
                        "description": "Not Found",
                        "schema": {
                            "$ref": "#/definitions/api.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/images": {
            "get": {
                "security": [
                    {
                        "ApiKeyAuth": []
                    }
                ],
                "description": "列出 uploads 目錄中的圖片，最新的在前",
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "equipment"
                ],
                "summary": "List uploaded images",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "array",
                            "items": {
                                "$ref": "#/definitions/uploads.Image"
                            }
                        }
                    },
                    "500": {
                        "description": "Internal Server Error",
                        "schema": {
                            "$ref": "#/definitions/api.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/ping": {
            "get": {
                "security": [
                    {
                        "ApiKeyAuth": []
                    }
                ],
                "description": "回傳 pong，並檢查資料庫與快取連線是否正常",
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "health"
                ],
                "summary": "Health Check",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/handler.PingResponse"
                        }
                    },
                    "500": {
                        "description": "Internal Server Error",
                        "schema": {
                            "$ref": "#/definitions/api.ErrorResponse"
                        }
                    }
                }
            }
        }
    },
    "definitions": {
        "admin.ClearResponse": {
            "type": "object",
            "properties": {
                "message": {
                    "type": "string",
                    "example": "All equipment deleted"
                },
                "deleted": {
                    "type": "integer",
                    "example": 42
                }
            }
        },
        "api.ChangePasswordRequest": {
            "type": "object",
            "required": [
                "newPassword",
                "oldPassword"
            ],
            "properties": {
                "oldPassword": {
                    "type": "string",
                    "example": "OldSecret123!"
                },
                "newPassword": {
                    "type": "string",
                    "example": "NewSecret456!",
                    "minLength": 6
                }
            }
        },
        "api.CreateUserRequest": {
            "type": "object",
            "required": [
                "authorizedLabs",
                "email",
                "firstName",
                "lastName",
                "pantherId",
                "role"
            ],
            "properties": {
                "firstName": {
                    "type": "string",
                    "example": "Ada"
                },
                "lastName": {
                    "type": "string",
                    "example": "Lovelace"
                },
                "email": {
                    "type": "string",
                    "example": "ada@fiu.edu"
                },
                "pantherId": {
                    "type": "string",
                    "example": "6123456"
                },
                "phoneNumber": {
                    "type": "string",
                    "example": "305-555-0100"
                },
                "role": {
                    "type": "string",
                    "example": "faculty"
                },
                "authorizedLabs": {
                    "type": "array",
                    "items": {
                        "type": "string"
                    },
                    "example": [
                        "EC3625"
                    ],
                    "minItems": 1
                }
            }
        },
        "api.CreateUserResponse": {
            "type": "object",
            "properties": {
                "message": {
                    "type": "string",
                    "example": "User created successfully"
                },
                "setupUrl": {
                    "type": "string",
                    "example": "http://localhost:3000/setup-password.html?token=..."
                },
                "emailQueued": {
                    "type": "boolean",
                    "example": true
                }
            }
        },
        "api.EquipmentRequest": {
            "type": "object",
            "required": [
                "category",
                "lab",
                "name",
                "quantity",
                "serialNumber",
                "status"
            ],
            "properties": {
                "name": {
                    "type": "string",
                    "example": "Oscilloscope"
                },
                "category": {
                    "type": "string",
                    "example": "Tektronix"
                },
                "model": {
                    "type": "string",
                    "example": "TBS1052B"
                },
                "lab": {
                    "type": "string",
                    "example": "EC3625"
                },
                "buyingDate": {
                    "type": "string",
                    "example": "2021-08-15"
                },
                "serialNumber": {
                    "type": "string",
                    "example": "C012345"
                },
                "fiuId": {
                    "type": "string",
                    "example": "FIU-00123"
                },
                "quantity": {
                    "type": "string",
                    "example": "1"
                },
                "price": {
                    "type": "string",
                    "example": "499.99"
                },
                "status": {
                    "type": "string",
                    "example": "Active / In Use"
                },
                "notes": {
                    "type": "string",
                    "example": "Calibrated 2024"
                },
                "manualLink": {
                    "type": "string",
                    "example": "https://example.com/manual.pdf"
                },
                "keepImage": {
                    "type": "boolean",
                    "example": true
                },
                "currentImage": {
                    "type": "string",
                    "example": "/uploads/equipment-1700000000000-a.png"
                }
            }
        },
        "api.EquipmentResponse": {
            "type": "object",
            "properties": {
                "id": {
                    "type": "integer"
                },
                "name": {
                    "type": "string"
                },
                "category": {
                    "type": "string"
                },
                "model": {
                    "type": "string"
                },
                "lab": {
                    "type": "string"
                },
                "buyingDate": {
                    "type": "string"
                },
                "serialNumber": {
                    "type": "string"
                },
                "fiuId": {
                    "type": "string"
                },
                "quantity": {
                    "type": "integer"
                },
                "price": {
                    "type": "number"
                },
                "status": {
                    "type": "string"
                },
                "notes": {
                    "type": "string"
                },
                "image": {
                    "type": "string"
                },
                "manualLink": {
                    "type": "string"
                },
                "createdBy": {
                    "type": "integer"
                },
                "updatedBy": {
                    "type": "integer"
                },
                "createdByName": {
                    "type": "string"
                },
                "updatedByName": {
                    "type": "string"
                },
                "created_at": {
                    "type": "string"
                },
                "updated_at": {
                    "type": "string"
                },
                "age": {
                    "type": "string",
                    "example": "2 years, 3 months"
                }
            }
        },
        "api.ErrorResponse": {
            "type": "object",
            "properties": {
                "message": {
                    "type": "string",
                    "example": "Equipment not found"
                }
            }
        },
        "api.ImageRequest": {
            "type": "object",
            "properties": {
                "image": {
                    "type": "string",
                    "example": "/uploads/equipment-1700000000000-a.png"
                }
            }
        },
        "api.LoginRequest": {
            "type": "object",
            "required": [
                "email",
                "password"
            ],
            "properties": {
                "email": {
                    "type": "string",
                    "example": "admin@fiu.edu"
                },
                "password": {
                    "type": "string",
                    "example": "admin123"
                }
            }
        },
        "api.LoginResponse": {
            "type": "object",
            "properties": {
                "token": {
                    "type": "string",
                    "example": "eyJhbGciOiJIUzI1NiIs..."
                },
                "user": {
                    "$ref": "#/definitions/api.SessionUser"
                }
            }
        },
        "api.MessageResponse": {
            "type": "object",
            "properties": {
                "message": {
                    "type": "string",
                    "example": "Equipment deleted successfully"
                }
            }
        },
        "api.SessionUser": {
            "type": "object",
            "properties": {
                "id": {
                    "type": "integer",
                    "example": 1
                },
                "firstName": {
                    "type": "string",
                    "example": "Ada"
                },
                "lastName": {
                    "type": "string",
                    "example": "Lovelace"
                },
                "email": {
                    "type": "string",
                    "example": "ada@fiu.edu"
                },
                "role": {
                    "type": "string",
                    "example": "faculty"
                },
                "authorizedLabs": {
                    "type": "array",
                    "items": {
                        "type": "string"
                    },
                    "example": [
                        "EC3625",
                        "EC3630"
                    ]
                }
            }
        },
        "api.SetupInfoResponse": {
            "type": "object",
            "properties": {
                "firstName": {
                    "type": "string",
                    "example": "Ada"
                },
                "lastName": {
                    "type": "string",
                    "example": "Lovelace"
                },
                "email": {
                    "type": "string",
                    "example": "ada@fiu.edu"
                },
                "role": {
                    "type": "string",
                    "example": "faculty"
                },
                "authorizedLabs": {
                    "type": "array",
                    "items": {
                        "type": "string"
                    },
                    "example": [
                        "EC3625"
                    ]
                }
            }
        },
        "api.SetupPasswordRequest": {
            "type": "object",
            "required": [
                "password",
                "token"
            ],
            "properties": {
                "token": {
                    "type": "string",
                    "example": "6f1c0e9a-4c1d-4e0b-9a57-2f3e3b1c7d10"
                },
                "password": {
                    "type": "string",
                    "example": "NewSecret456!",
                    "minLength": 6
                }
            }
        },
        "api.UpdateUserRequest": {
            "type": "object",
            "required": [
                "authorizedLabs",
                "email",
                "firstName",
                "lastName",
                "pantherId",
                "role"
            ],
            "properties": {
                "firstName": {
                    "type": "string",
                    "example": "Ada"
                },
                "lastName": {
                    "type": "string",
                    "example": "Lovelace"
                },
                "email": {
                    "type": "string",
                    "example": "ada@fiu.edu"
                },
                "pantherId": {
                    "type": "string",
                    "example": "6123456"
                },
                "phoneNumber": {
                    "type": "string",
                    "example": "305-555-0100"
                },
                "role": {
                    "type": "string",
                    "example": "grant"
                },
                "status": {
                    "type": "string",
                    "example": "active"
                },
                "authorizedLabs": {
                    "type": "array",
                    "items": {
                        "type": "string"
                    },
                    "example": [
                        "EC3625"
                    ]
                }
            }
        },
        "api.UserResponse": {
            "type": "object",
            "properties": {
                "id": {
                    "type": "integer"
                },
                "firstName": {
                    "type": "string"
                },
                "lastName": {
                    "type": "string"
                },
                "email": {
                    "type": "string"
                },
                "pantherId": {
                    "type": "string"
                },
                "phoneNumber": {
                    "type": "string"
                },
                "role": {
                    "type": "string"
                },
                "authorizedLabs": {
                    "type": "array",
                    "items": {
                        "type": "string"
                    }
                },
                "status": {
                    "type": "string"
                },
                "createdAt": {
                    "type": "string"
                },
                "updatedAt": {
                    "type": "string"
                }
            }
        },
        "api.VerifyResponse": {
            "type": "object",
            "properties": {
                "user": {
                    "$ref": "#/definitions/api.SessionUser"
                }
            }
        },
        "handler.PingResponse": {
            "type": "object",
            "properties": {
                "message": {
                    "type": "string",
                    "example": "pong"
                }
            }
        },
        "inventory.BackupFile": {
            "type": "object",
            "properties": {
                "name": {
                    "type": "string"
                },
                "size": {
                    "type": "integer"
                },
                "modified": {
                    "type": "string"
                }
            }
        },
        "inventory.BackupResult": {
            "type": "object",
            "properties": {
                "name": {
                    "type": "string"
                },
                "size": {
                    "type": "integer"
                },
                "metadata": {
                    "$ref": "#/definitions/inventory.Metadata"
                },
                "imageErrorDetails": {
                    "type": "array",
                    "items": {
                        "type": "string"
                    }
                }
            }
        },
        "inventory.ImportResult": {
            "type": "object",
            "properties": {
                "total": {
                    "type": "integer"
                },
                "imported": {
                    "type": "integer"
                },
                "failed": {
                    "type": "integer"
                },
                "cleared": {
                    "type": "integer"
                },
                "renamed": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/inventory.Rename"
                    }
                },
                "errors": {
                    "type": "array",
                    "items": {
                        "type": "string"
                    }
                }
            }
        },
        "inventory.Metadata": {
            "type": "object",
            "properties": {
                "backupDate": {
                    "type": "string"
                },
                "totalRecords": {
                    "type": "integer"
                },
                "labs": {
                    "type": "array",
                    "items": {
                        "type": "string"
                    }
                },
                "statusCounts": {
                    "type": "object",
                    "additionalProperties": {
                        "type": "integer"
                    }
                },
                "imageCount": {
                    "type": "integer"
                },
                "imagesCopied": {
                    "type": "integer"
                },
                "imageErrors": {
                    "type": "integer"
                },
                "description": {
                    "type": "string"
                }
            }
        },
        "inventory.Rename": {
            "type": "object",
            "properties": {
                "from": {
                    "type": "string"
                },
                "to": {
                    "type": "string"
                }
            }
        },
        "inventory.Report": {
            "type": "object",
            "properties": {
                "total": {
                    "type": "integer"
                },
                "byStatus": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/model.StatusCount"
                    }
                },
                "byLab": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/model.StatusCount"
                    }
                }
            }
        },
        "inventory.RestoreResult": {
            "type": "object",
            "properties": {
                "format": {
                    "type": "string"
                },
                "imagesRestored": {
                    "type": "integer"
                },
                "imageErrors": {
                    "type": "array",
                    "items": {
                        "type": "string"
                    }
                },
                "import": {
                    "$ref": "#/definitions/inventory.ImportResult"
                }
            }
        },
        "model.StatusCount": {
            "type": "object",
            "properties": {
                "key": {
                    "type": "string"
                },
                "count": {
                    "type": "integer"
                }
            }
        },
        "uploads.Image": {
            "type": "object",
            "properties": {
                "name": {
                    "type": "string"
                },
                "url": {
                    "type": "string"
                },
                "size": {
                    "type": "integer"
                },
                "modified": {
                    "type": "string"
                }
            }
        }
    },
    "securityDefinitions": {
        "ApiKeyAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:3000",
	BasePath:         "/api",
	Schemes:          []string{},
	Title:            "Lab Equipment Inventory API",
	Description:      "實驗室設備管理系統的後端 API 文件",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
