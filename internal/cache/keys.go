package cache

// StoriesListKey names the cached full listing for one owner. The version
// segment makes stale shapes self-evict after a deploy.
func StoriesListKey(ownerID string) string {
	return "stories:list:v1:user=" + ownerID
}
