// Package barcode implements the decode engine used by bartune.
//
// A Reader owns a mutable RuntimeSettings record that is read with
// GetRuntimeSettings, modified by the caller and committed back with
// UpdateRuntimeSettings. Settings can also be loaded from parameter
// templates (JSON or YAML) which may define several named profiles.
// DecodeFile runs the configured passes over an image or PDF file using
// the gozxing readers.
//
// Example:
//
//	r := barcode.NewReader()
//	s := r.GetRuntimeSettings()
//	s.BarcodeFormatIDs = barcode.FormatEAN13
//	s.ExpectedBarcodesCount = 1
//	if err := r.UpdateRuntimeSettings(s); err != nil {
//		return err
//	}
//	results, err := r.DecodeFile(ctx, "label.png", "")
package barcode
