package planning

// palette is cycled by user id; colours carry no meaning.
var palette = [10]string{
	"#6366F1", "#10B981", "#F59E0B", "#EF4444", "#3B82F6",
	"#8B5CF6", "#EC4899", "#14B8A6", "#F97316", "#84CC16",
}

func ColorFor(userID int) string {
	i := userID % len(palette)
	if i < 0 {
		i += len(palette)
	}
	return palette[i]
}
