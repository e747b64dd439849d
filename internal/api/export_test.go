package api

// ExtractAPIErrorForTest exposes extractAPIError for testing
func ExtractAPIErrorForTest(body []byte) string {
	return extractAPIError(body)
}
