package response

import (
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

// shapeSchema describes the fields the renderer reads. Violations never fail
// decoding; they are reported so operators can spot a drifting backend.
const shapeSchema = `{
  "type": "object",
  "definitions": {
    "text": {"type": ["string", "number", "null"]},
    "texts": {"type": ["array", "null"], "items": {"type": "string"}},
    "transcriptList": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "title": {"$ref": "#/definitions/text"},
          "date": {"$ref": "#/definitions/text"},
          "time": {"$ref": "#/definitions/text"},
          "duration": {"type": ["integer", "number", "string", "null"], "minimum": 0},
          "company": {"$ref": "#/definitions/text"},
          "stampli_contact": {"$ref": "#/definitions/text"},
          "company_contact": {"$ref": "#/definitions/text"},
          "gong_url": {"$ref": "#/definitions/text"},
          "transcript": {"$ref": "#/definitions/text"}
        }
      }
    }
  },
  "properties": {
    "intent": {"type": ["string", "null"]},
    "error": {"type": ["string", "object", "null"]},
    "company_name": {"$ref": "#/definitions/text"},
    "response": {"$ref": "#/definitions/text"},
    "plan": {"$ref": "#/definitions/texts"},
    "steps": {"$ref": "#/definitions/texts"},
    "assessment": {
      "type": ["object", "null"],
      "properties": {
        "churn_score": {"type": ["integer", "number", "string", "null"], "minimum": 0, "maximum": 100},
        "risk_level": {"$ref": "#/definitions/text"},
        "summary": {"$ref": "#/definitions/text"},
        "sentiment_analysis": {"$ref": "#/definitions/text"},
        "red_flags": {"$ref": "#/definitions/texts"},
        "signals": {
          "type": ["array", "null"],
          "items": {
            "type": "object",
            "properties": {
              "category": {"$ref": "#/definitions/text"},
              "description": {"$ref": "#/definitions/text"},
              "severity": {"$ref": "#/definitions/text"}
            }
          }
        },
        "recommendations": {
          "type": ["array", "null"],
          "items": {
            "type": "object",
            "properties": {
              "action": {"$ref": "#/definitions/text"},
              "urgency": {"$ref": "#/definitions/text"},
              "rationale": {"$ref": "#/definitions/text"}
            }
          }
        }
      }
    },
    "transcripts": {
      "oneOf": [
        {"type": "null"},
        {"$ref": "#/definitions/transcriptList"},
        {
          "type": "object",
          "properties": {
            "transcripts": {"oneOf": [{"type": "null"}, {"$ref": "#/definitions/transcriptList"}]}
          }
        }
      ]
    }
  }
}`

var (
	schemaOnce     sync.Once
	compiledSchema *gojsonschema.Schema
	schemaErr      error
)

func loadSchema() (*gojsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiledSchema, schemaErr = gojsonschema.NewSchema(gojsonschema.NewStringLoader(shapeSchema))
	})
	return compiledSchema, schemaErr
}

func validateShape(doc []byte) []Warning {
	schema, err := loadSchema()
	if err != nil {
		return []Warning{{Field: "(schema)", Message: err.Error()}}
	}
	result, err := schema.Validate(gojsonschema.NewBytesLoader(doc))
	if err != nil {
		return []Warning{{Field: "(root)", Message: err.Error()}}
	}
	if result.Valid() {
		return nil
	}
	warnings := make([]Warning, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		warnings = append(warnings, Warning{Field: desc.Field(), Message: desc.Description()})
	}
	return warnings
}
