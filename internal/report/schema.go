package report

// Schema is the JSON Schema (Draft 2020-12) for the distortion
// summary. It documents the structure written by WriteJSON.
const Schema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "$id": "https://github.com/unbound-force/harmonics/distortion-report.schema.json",
  "title": "Harmonic Distortion Report",
  "description": "Output schema for harmonics report/stats --format=json",
  "type": "object",
  "required": ["version", "input", "fundamental", "frequencies", "nodes", "groups"],
  "properties": {
    "version": {
      "type": "string",
      "description": "Schema version (semver)"
    },
    "input": {
      "type": "string",
      "description": "Path of the simulation report"
    },
    "fundamental": {
      "type": "integer",
      "minimum": 1,
      "description": "Fundamental frequency in Hz"
    },
    "frequencies": {
      "type": "array",
      "items": { "type": "integer" },
      "description": "Solution frequencies found in the report, ascending"
    },
    "nodes": {
      "type": "array",
      "items": { "$ref": "#/$defs/NodeSummary" }
    },
    "groups": {
      "type": "array",
      "items": { "$ref": "#/$defs/PhaseGroup" }
    }
  },
  "$defs": {
    "NodeSummary": {
      "type": "object",
      "required": ["node", "bus", "phase", "thd", "thd_percent", "ihd", "worst_order"],
      "properties": {
        "node": { "type": "string" },
        "bus": { "type": "string" },
        "phase": { "type": "string", "enum": ["a", "b", "c"] },
        "thd": {
          "type": "number",
          "minimum": 0,
          "description": "Total harmonic distortion as a ratio"
        },
        "thd_percent": { "type": "number", "minimum": 0 },
        "ihd": {
          "type": "array",
          "items": { "$ref": "#/$defs/Harmonic" }
        },
        "worst_order": {
          "type": "integer",
          "minimum": 2,
          "description": "Harmonic order with the largest IHD"
        }
      }
    },
    "Harmonic": {
      "type": "object",
      "required": ["order", "ratio", "percent"],
      "properties": {
        "order": {
          "type": "integer",
          "minimum": 2,
          "description": "Harmonic order; the fundamental (1) is never listed"
        },
        "ratio": { "type": "number", "minimum": 0 },
        "percent": { "type": "number", "minimum": 0 }
      }
    },
    "PhaseGroup": {
      "type": "object",
      "required": ["bus", "members"],
      "properties": {
        "bus": { "type": "string" },
        "members": {
          "type": "array",
          "minItems": 1,
          "maxItems": 3,
          "items": { "type": "string" }
        }
      }
    }
  }
}`
