package httpapi

import (
	"net/http"

	"github.com/eyalcha/kan-program/internal/buildinfo"
	"github.com/eyalcha/kan-program/internal/httpjson"
)

// handleOpenAPI renvoie une spec OpenAPI minimale de l'API capteurs.
func (s *Server) handleOpenAPI(w http.ResponseWriter, r *http.Request) {
	jsonOK := func(schemaRef string) map[string]any {
		return map[string]any{
			"description": "OK",
			"content": map[string]any{
				"application/json": map[string]any{
					"schema": map[string]any{"$ref": schemaRef},
				},
			},
		}
	}

	jsonErr := map[string]any{
		"description": "Error",
		"content": map[string]any{
			"application/json": map[string]any{
				"schema": map[string]any{"$ref": "#/components/schemas/Error"},
			},
		},
	}

	stationParam := []any{map[string]any{
		"name":     "stationID",
		"in":       "path",
		"required": true,
		"schema":   map[string]any{"type": "string"},
	}}

	spec := map[string]any{
		"openapi": "3.0.3",
		"info": map[string]any{
			"title":   "Kan Program API",
			"version": buildinfo.Current().Version,
		},
		"components": map[string]any{
			"schemas": map[string]any{
				"OpenAPIDocument": map[string]any{
					"type":                 "object",
					"additionalProperties": true,
				},
				"Error": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"error": map[string]any{"type": "string"},
						"code":  map[string]any{"type": "string", "enum": []any{"timeout", "transport", "malformed_payload", "upstream_error", codeStationNotFound, codeInternal}},
					},
					"required": []any{"error"},
				},
				"Sensor": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"entityId":      map[string]any{"type": "string"},
						"stationId":     map[string]any{"type": "string"},
						"name":          map[string]any{"type": "string"},
						"icon":          map[string]any{"type": "string"},
						"state":         map[string]any{"type": "string", "nullable": true},
						"attributes":    map[string]any{"type": "object", "additionalProperties": true},
						"available":     map[string]any{"type": "boolean"},
						"lastError":     map[string]any{"type": "string"},
						"lastSuccessAt": map[string]any{"type": "string", "format": "date-time"},
					},
				},
				"SensorList": map[string]any{
					"type":  "array",
					"items": map[string]any{"$ref": "#/components/schemas/Sensor"},
				},
				"ServiceResult": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"service": map[string]any{"type": "string"},
						"results": map[string]any{"type": "object", "additionalProperties": true},
					},
				},
			},
		},
		"paths": map[string]any{
			"/api/v1/health": map[string]any{
				"get": map[string]any{"responses": map[string]any{"200": map[string]any{"description": "OK"}}},
			},
			"/api/v1/version": map[string]any{
				"get": map[string]any{"responses": map[string]any{"200": map[string]any{"description": "OK"}}},
			},
			"/api/v1/openapi.json": map[string]any{
				"get": map[string]any{"responses": map[string]any{"200": jsonOK("#/components/schemas/OpenAPIDocument")}},
			},
			"/api/v1/events": map[string]any{
				"get": map[string]any{"responses": map[string]any{"200": map[string]any{"description": "SSE"}}},
			},
			"/api/v1/stations": map[string]any{
				"get": map[string]any{"responses": map[string]any{"200": jsonOK("#/components/schemas/SensorList")}},
			},
			"/api/v1/stations/{stationID}": map[string]any{
				"get": map[string]any{
					"parameters": stationParam,
					"responses": map[string]any{
						"200": jsonOK("#/components/schemas/Sensor"),
						"404": jsonErr,
					},
				},
			},
			"/api/v1/stations/{stationID}/refresh": map[string]any{
				"post": map[string]any{
					"parameters": stationParam,
					"responses": map[string]any{
						"200": jsonOK("#/components/schemas/Sensor"),
						"404": jsonErr,
						"502": jsonErr,
					},
				},
			},
			"/api/v1/services/refresh": map[string]any{
				"post": map[string]any{"responses": map[string]any{"200": jsonOK("#/components/schemas/ServiceResult")}},
			},
		},
	}

	httpjson.Write(w, http.StatusOK, spec)
}
