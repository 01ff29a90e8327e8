// Package docs 提供 PhotoVault API 的 Swagger 文档，格式与 swag init 的输出一致.
// 接口变更时需同步更新 docTemplate.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "license": {
            "name": "MIT",
            "url": "https://opensource.org/license/mit/"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/ping": {
            "get": {
                "produces": ["application/json"],
                "summary": "健康检查",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.PingResponse"}}
                }
            }
        },
        "/users": {
            "get": {
                "produces": ["application/json"],
                "summary": "用户列表",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.UsersResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/images": {
            "get": {
                "produces": ["application/json"],
                "summary": "图片列表",
                "parameters": [
                    {"type": "integer", "description": "只列出该用户的图片", "name": "userid", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.AssetsResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            },
            "delete": {
                "produces": ["application/json"],
                "summary": "清空全部图片",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.DeleteResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/types.DeleteResponse"}}
                }
            }
        },
        "/image/{userid}": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "summary": "上传图片",
                "parameters": [
                    {"type": "integer", "description": "用户编号", "name": "userid", "in": "path", "required": true},
                    {"description": "文件名与 base64 内容", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/types.UploadRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.UploadResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "413": {"description": "Request Entity Too Large", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/image/{assetid}": {
            "get": {
                "produces": ["application/json"],
                "summary": "下载图片",
                "parameters": [
                    {"type": "integer", "description": "资产编号", "name": "assetid", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.DownloadResponse"}},
                    "304": {"description": "Not Modified"},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/image_labels/{assetid}": {
            "get": {
                "produces": ["application/json"],
                "summary": "图片标签",
                "parameters": [
                    {"type": "integer", "description": "资产编号", "name": "assetid", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.LabelsResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/images_with_label/{label}": {
            "get": {
                "produces": ["application/json"],
                "summary": "按标签搜索",
                "parameters": [
                    {"type": "string", "description": "标签文本，不区分大小写", "name": "label", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.SearchResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "types.ErrorResponse": {
            "type": "object",
            "properties": {"message": {"type": "string"}}
        },
        "types.PingResponse": {
            "type": "object",
            "properties": {"message": {"type": "string"}, "M": {}, "N": {}}
        },
        "types.User": {
            "type": "object",
            "properties": {
                "userid": {"type": "integer"},
                "username": {"type": "string"},
                "givenname": {"type": "string"},
                "familyname": {"type": "string"}
            }
        },
        "types.UsersResponse": {
            "type": "object",
            "properties": {
                "message": {"type": "string"},
                "data": {"type": "array", "items": {"$ref": "#/definitions/types.User"}}
            }
        },
        "types.Asset": {
            "type": "object",
            "properties": {
                "assetid": {"type": "integer"},
                "userid": {"type": "integer"},
                "localname": {"type": "string"},
                "bucketkey": {"type": "string"}
            }
        },
        "types.AssetsResponse": {
            "type": "object",
            "properties": {
                "message": {"type": "string"},
                "data": {"type": "array", "items": {"$ref": "#/definitions/types.Asset"}}
            }
        },
        "types.UploadRequest": {
            "type": "object",
            "required": ["local_filename"],
            "properties": {
                "local_filename": {"type": "string"},
                "data": {"type": "string", "format": "byte"}
            }
        },
        "types.UploadResponse": {
            "type": "object",
            "properties": {
                "message": {"type": "string"},
                "assetid": {"type": "integer"},
                "bucket_key": {"type": "string"},
                "label_status": {"type": "string"},
                "label_count": {"type": "integer"},
                "label_error": {"type": "string"}
            }
        },
        "types.DownloadResponse": {
            "type": "object",
            "properties": {
                "message": {"type": "string"},
                "user_id": {"type": "integer"},
                "local_filename": {"type": "string"},
                "bucket_key": {"type": "string"},
                "data": {"type": "string", "format": "byte"}
            }
        },
        "types.Label": {
            "type": "object",
            "properties": {"label": {"type": "string"}, "confidence": {"type": "integer"}}
        },
        "types.LabelsResponse": {
            "type": "object",
            "properties": {
                "message": {"type": "string"},
                "data": {"type": "array", "items": {"$ref": "#/definitions/types.Label"}}
            }
        },
        "types.LabelMatch": {
            "type": "object",
            "properties": {
                "assetid": {"type": "integer"},
                "label": {"type": "string"},
                "confidence": {"type": "integer"}
            }
        },
        "types.SearchResponse": {
            "type": "object",
            "properties": {
                "message": {"type": "string"},
                "data": {"type": "array", "items": {"$ref": "#/definitions/types.LabelMatch"}}
            }
        },
        "types.DeleteResponse": {
            "type": "object",
            "properties": {
                "message": {"type": "string"},
                "assets": {"type": "integer"},
                "blobs_deleted": {"type": "integer"},
                "blobs_failed": {"type": "array", "items": {"type": "string"}}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "PhotoVault API",
	Description:      "PhotoVault 保存用户上传的图片，自动识别图片标签，并支持按标签搜索。",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
