package extractor

// ParsePayload exposes the model-reply decoder to the external test package.
var ParsePayload = parsePayload
