// Package docs Cadastral Search API.
//
// Поиск земельных участков и объектов капитального строительства в контуре,
// нарисованном на карте, по данным геопортала НСПД.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {
            "name": "API Support"
        },
        "license": {
            "name": "MIT",
            "url": "https://opensource.org/licenses/MIT"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/api/cadastral": {
            "get": {
                "description": "Возвращает один объект кадастра в виде GeoJSON Feature с полем objectType",
                "produces": ["application/json"],
                "tags": ["Cadastral"],
                "summary": "Объект по кадастровому номеру",
                "parameters": [
                    {
                        "type": "string",
                        "description": "Кадастровый номер",
                        "name": "cadastral_number",
                        "in": "query",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.ObjectResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/utils.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/utils.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/utils.ErrorResponse"}}
                }
            }
        },
        "/api/cadastral/search_in_contour": {
            "post": {
                "description": "Ищет земельные участки и ОКС внутри нарисованного полигона с каскадом резервных стратегий",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Cadastral"],
                "summary": "Поиск объектов в контуре",
                "parameters": [
                    {
                        "description": "Контур (Polygon или MultiPolygon, EPSG:4326)",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/dto.ContourSearchRequest"}
                    },
                    {
                        "type": "boolean",
                        "description": "Вернуть журнал решений поиска",
                        "name": "debug",
                        "in": "query"
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.FeatureCollection"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/utils.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/utils.ErrorResponse"}}
                }
            }
        },
        "/api/map-data": {
            "get": {
                "description": "Служебный эндпоинт фронтенда карты",
                "produces": ["application/json"],
                "tags": ["Cadastral"],
                "summary": "Данные для карты",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        }
    },
    "definitions": {
        "domain.Geometry": {
            "type": "object",
            "properties": {
                "type": {"type": "string"},
                "coordinates": {}
            }
        },
        "domain.GeometryInput": {
            "type": "object",
            "required": ["coordinates", "type"],
            "properties": {
                "type": {"type": "string", "example": "Polygon"},
                "coordinates": {}
            }
        },
        "dto.ContourSearchRequest": {
            "type": "object",
            "required": ["geometry"],
            "properties": {
                "geometry": {"$ref": "#/definitions/domain.GeometryInput"}
            }
        },
        "dto.Feature": {
            "type": "object",
            "properties": {
                "type": {"type": "string"},
                "id": {"type": "string"},
                "properties": {"type": "object", "additionalProperties": true},
                "geometry": {"$ref": "#/definitions/domain.Geometry"}
            }
        },
        "dto.FeatureCollection": {
            "type": "object",
            "properties": {
                "type": {"type": "string"},
                "features": {"type": "array", "items": {"$ref": "#/definitions/dto.Feature"}},
                "message": {"type": "string"},
                "trace": {"type": "object"}
            }
        },
        "dto.ObjectResponse": {
            "type": "object",
            "properties": {
                "type": {"type": "string"},
                "id": {"type": "string"},
                "properties": {"type": "object", "additionalProperties": true},
                "geometry": {"$ref": "#/definitions/domain.Geometry"},
                "objectType": {"type": "string"}
            }
        },
        "utils.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string"},
                "code": {"type": "string"},
                "details": {"type": "object", "additionalProperties": true}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0.0",
	Host:             "localhost:5001",
	BasePath:         "/",
	Schemes:          []string{"http", "https"},
	Title:            "Cadastral Search API",
	Description:      "Сервис поиска земельных участков и ОКС в контуре по данным НСПД.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
