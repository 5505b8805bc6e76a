package sdk

// Version is the published SDK version.
// 0.4.0: Breaking - Books.Update takes BookUpdate with pointer fields for partial updates.
// 0.3.0: Add Books.All search/pagination, Books.Stats, and cover image upload.
// 0.2.0: Session manager with single-flight refresh and background auto-refresh.
const Version = "0.4.0"
