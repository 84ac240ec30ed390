package testdata

type Tag struct {
	ID    int
	Posts []Post `rel:"many_to_many"`
}

type Post struct {
	ID int
}
