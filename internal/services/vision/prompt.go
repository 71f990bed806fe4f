package vision

const locationPrompt = `Analyze this image and extract the real-world location information with precise coordinates.

This image shows a place in the real world. Your task is to:
1. Identify the specific location name (business name, landmark, or place)
2. Determine the exact latitude and longitude coordinates
3. Provide the full address if visible or determinable
4. Describe the location type and notable features
5. Assess your confidence level in the location identification

IMPORTANT:
- If you can identify landmarks, street signs, business names, or distinctive features, use them to determine coordinates
- Look for any text, logos, or recognizable architectural features
- Consider geographical context clues (climate, architecture style, language on signs)
- Be conservative with confidence levels - only mark as "high" if you're very certain

Respond ONLY with valid JSON in this exact format (no markdown, no explanation):
{
  "location_name": "Name of the place or landmark",
  "latitude": 0.0,
  "longitude": 0.0,
  "address": "Full address if known, or city/area if partial",
  "city": "City name",
  "country": "Country name",
  "description": "Brief description of what this place is and notable features",
  "category": "Type of place (restaurant, cafe, bar, attraction, park, landmark, store, hotel, etc.)",
  "confidence": "high/medium/low",
  "confidence_reason": "Explanation of why you assigned this confidence level",
  "additional_info": "Any other relevant details like distinctive features, nearby landmarks"
}

If you cannot confidently identify the location or coordinates:
- Set confidence to "low"
- Provide your best estimate with reasoning
- Set latitude/longitude to null if you have no reliable data`
