package prompt

// AnalysisSchema is the output contract for one scan. boundingBox is
// [yMin, xMin, yMax, xMax] on a 0-1000 scale or null.
const AnalysisSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "title": "analyze",
  "type": "object",
  "additionalProperties": false,
  "properties": {
    "isMenu": {
      "type": "boolean",
      "description": "true if the photo is a menu or list of dish names, false if it shows prepared food"
    },
    "dishes": {
      "type": "array",
      "items": {
        "type": "object",
        "additionalProperties": false,
        "properties": {
          "name":         { "type": "string", "description": "dish name in the target language" },
          "originalName": { "type": "string", "description": "dish name as written or as known in its native language" },
          "englishName":  { "type": "string", "description": "short English working name used for image lookup" },
          "description":  { "type": "string", "description": "one or two sentences in the target language" },
          "tags":         { "type": "array", "items": { "type": "string" }, "description": "up to 3 short flavor descriptors" },
          "allergens":    { "type": "array", "items": { "type": "string" }, "description": "up to 5 likely allergens, empty if none" },
          "spiceLevel":   { "type": "string", "enum": ["None", "Mild", "Medium", "Hot"] },
          "category":     { "type": "string", "description": "grouping label such as Soup, Main, Dessert" },
          "boundingBox": {
            "type": ["array", "null"],
            "items": { "type": "integer", "minimum": 0, "maximum": 1000 },
            "minItems": 4,
            "maxItems": 4,
            "description": "[yMin, xMin, yMax, xMax] 0-1000. Menu: the text naming the dish. Food photo: the dish itself. null if not locatable"
          }
        }
      }
    }
  }
}`
