package errors

import "net/http"

// ErrorCode identifies a specific failure category. Codes are grouped by the
// module that raises them: COMMON for cross-cutting conditions, DATA for the
// pitch-filtering layer, MODEL for zone-model fitting and surface math, and
// ANLZ for the sequential influence analysis.
type ErrorCode string

func (c ErrorCode) String() string {
	return string(c)
}

// Common error codes.
const (
	ErrCodeInternal           ErrorCode = "COMMON_001"
	ErrCodeBadRequest         ErrorCode = "COMMON_002"
	ErrCodeNotFound           ErrorCode = "COMMON_003"
	ErrCodeConflict           ErrorCode = "COMMON_004"
	ErrCodeTooManyRequests    ErrorCode = "COMMON_005"
	ErrCodeServiceUnavailable ErrorCode = "COMMON_006"
	ErrCodeTimeout            ErrorCode = "COMMON_007"
	ErrCodeValidation         ErrorCode = "COMMON_008"
	ErrCodeSerialization      ErrorCode = "COMMON_009"
	ErrCodeDatabaseError      ErrorCode = "COMMON_010"
	ErrCodeCacheError         ErrorCode = "COMMON_011"
	ErrCodeStorageError       ErrorCode = "COMMON_012"
	ErrCodeMessagingError     ErrorCode = "COMMON_013"
)

// Data / pitch-filter error codes.
const (
	// ErrCodeInsufficientData is raised when a filtered pitch subset is below
	// the minimum sample size required to fit a model. The error detail names
	// the decision class and the have/need counts so callers can distinguish
	// "relax the filters" from "this subject simply lacks data".
	ErrCodeInsufficientData ErrorCode = "DATA_001"

	// ErrCodeInvalidFilter is raised for conflicting or out-of-domain filter
	// combinations, e.g. a batting-side filter the subject never recorded.
	ErrCodeInvalidFilter ErrorCode = "DATA_002"

	// ErrCodeDatasetMissing is raised when no pitch archive exists for the
	// requested season.
	ErrCodeDatasetMissing ErrorCode = "DATA_003"

	// ErrCodeDatasetMalformed is raised when a season snapshot cannot be
	// parsed into pitch records.
	ErrCodeDatasetMalformed ErrorCode = "DATA_004"
)

// Model-fitting and surface error codes.
const (
	// ErrCodeDegenerateFit is raised when a model fit fails to converge or
	// produces non-finite coefficients. Retrying with identical data cannot
	// help; callers should fall back to a coarser aggregate if one exists.
	ErrCodeDegenerateFit ErrorCode = "MODEL_001"

	// ErrCodeUndefinedCentroid is raised when a surface carries zero total
	// mass and therefore has no weighted centroid.
	ErrCodeUndefinedCentroid ErrorCode = "MODEL_002"

	// ErrCodeGridResolution is raised when a requested grid resolution is
	// outside the configured bounds.
	ErrCodeGridResolution ErrorCode = "MODEL_003"
)

// Influence-analysis error codes.
const (
	// ErrCodeInfluenceNotReady is raised for a subject with too few
	// qualifying at-bat sequences or analyzable takes to fit the
	// prior-swing-rate regression.
	ErrCodeInfluenceNotReady ErrorCode = "ANLZ_001"

	// ErrCodeBatchTooLarge is raised when an aggregate analysis request
	// exceeds the configured subject-batch limit.
	ErrCodeBatchTooLarge ErrorCode = "ANLZ_002"
)

// HTTPStatus maps an ErrorCode to the HTTP status the interface layer should
// respond with. Unknown codes map to 500.
func (c ErrorCode) HTTPStatus() int {
	switch c {
	case ErrCodeBadRequest, ErrCodeValidation, ErrCodeInvalidFilter,
		ErrCodeGridResolution, ErrCodeBatchTooLarge, ErrCodeDatasetMalformed:
		return http.StatusBadRequest
	case ErrCodeNotFound, ErrCodeDatasetMissing:
		return http.StatusNotFound
	case ErrCodeConflict:
		return http.StatusConflict
	case ErrCodeTooManyRequests:
		return http.StatusTooManyRequests
	case ErrCodeInsufficientData, ErrCodeInfluenceNotReady:
		return http.StatusUnprocessableEntity
	case ErrCodeServiceUnavailable:
		return http.StatusServiceUnavailable
	case ErrCodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
