package vision

// analysisPrompt is the fixed instruction sent with every image. The response
// structure matters: the COUNTRY/CITY/LANDMARK lines feed the geocoding
// fallback and the labelled coordinate block is what the extractor parses.
const analysisPrompt = `You are an expert OSINT geolocation analyst. Examine this photograph and determine where it was taken.

Work through every visible clue:
- Signage, storefronts and any readable text, including language and script
- Architectural style, building materials and roof shapes
- Road infrastructure: markings, signs, traffic direction, utility poles
- Vegetation and terrain
- Vehicles, license plates and driving side
- Shadows and lighting as a hemisphere hint

Then report your conclusion in EXACTLY this format:

COUNTRY: <country name or Unknown>
CITY: <city name or Unknown>
LANDMARK: <specific landmark if identifiable, otherwise Unknown>

UBICACION PRINCIPAL: <latitude>, <longitude>
ALTERNATIVA 1: <latitude>, <longitude>
ALTERNATIVA 2: <latitude>, <longitude>

Coordinates must be decimal degrees with at least four decimal places. If you
cannot commit to coordinates, still fill in the COUNTRY/CITY/LANDMARK lines
with your best assessment. After the structured block, explain your reasoning.`

// Prompt exposes the fixed analysis prompt (useful for logging and tests).
func Prompt() string { return analysisPrompt }
