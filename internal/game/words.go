package game

// DefaultNames seats up to ten participants; sessions take a prefix of it.
var DefaultNames = []string{
	"Alice", "Bob", "Charlie", "Diana", "Emily",
	"Frank", "Grace", "Henry", "Isla", "Jack",
}

// DefaultWords is the secret-word pool used when a session or batch does
// not supply its own.
var DefaultWords = []string{
	"pizza", "beach", "library", "winter", "guitar",
	"rocket", "coffee", "castle", "jungle", "mirror",
	"train", "violin", "desert", "honey", "anchor",
	"planet", "bakery", "glacier", "circus", "lantern",
	"harbor", "meadow", "puzzle", "thunder",
}
