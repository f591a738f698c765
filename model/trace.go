package model

// TraceResult 脊线追踪结果
type TraceResult struct {
	MD5        string  `json:"md5"`
	Width      int     `json:"width"`
	Height     int     `json:"height"`
	Threshold  float64 `json:"threshold"`
	Invert     bool    `json:"invert"`
	Image      string  `json:"image"` // base64编码的PNG数据
	RidgeRatio float64 `json:"ridge_ratio"`
	Timestamp  int64   `json:"timestamp"`
}

// Scan 历史记录中的一次追踪
type Scan struct {
	ID            string  `json:"id"`
	UserID        string  `json:"user_id"`
	FileName      string  `json:"file_name"`
	MD5           string  `json:"md5"`
	Threshold     float64 `json:"threshold"`
	Invert        bool    `json:"invert"`
	SubjectName   string  `json:"subject_name,omitempty"`
	SubjectEmail  string  `json:"subject_email,omitempty"`
	SubjectMobile string  `json:"subject_mobile,omitempty"`
	Notes         string  `json:"notes,omitempty"`
	Timestamp     int64   `json:"timestamp"`
}

// UploadResponse 追踪响应
type UploadResponse struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	Data    *TraceResult `json:"data,omitempty"`
	Scan    *Scan        `json:"scan,omitempty"`
}

// ScanListResponse 历史记录列表响应
type ScanListResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    []Scan `json:"data"`
}

// ErrorResponse 错误响应
type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}
