package enums

type MediaKind string

const (
	MediaKindImage      MediaKind = "image"
	MediaKindVideoFrame MediaKind = "video_frame"
)
