package dto

// ExportQuery captures GET /reports/export parameters.
type ExportQuery struct {
	Scope  string `form:"scope" binding:"max=32"`
	Format string `form:"format" binding:"max=16"`
}
