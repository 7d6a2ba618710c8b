package cache

import "fmt"

// SearchKey search:{query}:{pageSize}:{page}:{sortKey}
func SearchKey(query string, pageSize, page int, sortKey string) string {
	return fmt.Sprintf("search:%s:%d:%d:%s", query, pageSize, page, sortKey)
}

func ContributorsKey(owner, repo string) string {
	return fmt.Sprintf("contributors:%s/%s", owner, repo)
}

func PullRequestsKey(owner, repo string) string {
	return fmt.Sprintf("prs:%s/%s", owner, repo)
}

func GoodFirstIssuesKey(owner, repo string) string {
	return fmt.Sprintf("goodfirst:%s/%s", owner, repo)
}

func CommitActivityKey(owner, repo string) string {
	return fmt.Sprintf("commits:%s/%s", owner, repo)
}

func RepositoryKey(owner, repo string) string {
	return fmt.Sprintf("repo:%s/%s", owner, repo)
}

func TrendingKey(limit int) string {
	return fmt.Sprintf("trending:%d", limit)
}

func PopularKey(limit int) string {
	return fmt.Sprintf("popular:%d", limit)
}
