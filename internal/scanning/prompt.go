package scanning

// lineItemPrompt is the shared prompt used by all LLM providers for
// extracting invoice line items from OCR text
const lineItemPrompt = `Extract ONLY the invoice line items from this OCR text.

Return STRICT JSON only:

{
  "rows": [
    {
      "item_name": "<string>",
      "item_quantity": <number or null>,
      "item_rate": <number or null>,
      "item_amount": <number or null>
    }
  ]
}

Rules:
- item_name = description column
- item_quantity = Qty column
- item_rate = Rate column
- item_amount = Gross Amount column
- If amount is not present, you may leave it null.
- Ignore TOTAL / Category Total / summary rows.
- Do not include any text before or after the JSON.
- Do not use markdown code blocks.

OCR TEXT:
`

// buildLineItemPrompt appends the OCR page text to the shared prompt
func buildLineItemPrompt(pageText string) string {
	return lineItemPrompt + pageText
}
