package tracer

import "errors"

var (
	// ErrInvalidDimensions 宽高非正，或缓冲区长度与 width*height*4 不符
	ErrInvalidDimensions = errors.New("tracer: invalid dimensions")
	// ErrAllocation 无法分配中间缓冲区
	ErrAllocation = errors.New("tracer: allocation failure")
)
