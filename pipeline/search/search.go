// Package search wraps the learning-resource search provider.
package search

import (
	"context"
	"sort"
	"strings"

	"github.com/samber/lo"

	"github.com/studylens/document-analysis-service/common/models"
)

const (
	// minRelevanceScore drops provider hits below this relevance.
	minRelevanceScore = 0.6

	// maxResources caps the total kept across all topics, highest score first.
	maxResources = 10

	// maxTopics caps how many topics are queried.
	maxTopics = 5
)

// Searcher finds learning resources for a set of topics.
type Searcher interface {
	Search(ctx context.Context, topics []models.Topic) (models.ResourceGroups, error)
}

// SentinelGroups is the degraded placeholder substituted when the search
// stage fails entirely. The job still completes with empty groups.
func SentinelGroups() models.ResourceGroups {
	return models.ResourceGroups{
		Articles: []models.Resource{},
		Videos:   []models.Resource{},
		Courses:  []models.Resource{},
		Topics:   []string{"Error searching resources"},
	}
}

// GroupResources filters raw provider hits by relevance, keeps the top
// scored ones and classifies them into articles, videos and courses. The
// requested topic names are always echoed back, even when nothing survived
// the filter.
func GroupResources(resources []models.Resource, topics []models.Topic) models.ResourceGroups {
	kept := lo.Filter(resources, func(r models.Resource, _ int) bool {
		return r.Score >= minRelevanceScore
	})

	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].Score > kept[j].Score
	})
	if len(kept) > maxResources {
		kept = kept[:maxResources]
	}

	groups := models.ResourceGroups{
		Articles: []models.Resource{},
		Videos:   []models.Resource{},
		Courses:  []models.Resource{},
		Topics: lo.Map(topics, func(t models.Topic, _ int) string {
			return t.Name
		}),
	}

	for _, r := range kept {
		switch classify(r) {
		case kindVideo:
			groups.Videos = append(groups.Videos, r)
		case kindCourse:
			groups.Courses = append(groups.Courses, r)
		default:
			groups.Articles = append(groups.Articles, r)
		}
	}

	return groups
}

type resourceKind int

const (
	kindArticle resourceKind = iota
	kindVideo
	kindCourse
)

var (
	videoHosts  = []string{"youtube.com", "youtu.be", "vimeo.com"}
	courseHosts = []string{"coursera.org", "udemy.com", "edx.org"}
)

// classify buckets a resource by its explicit provider type first, then by
// its URL. Anything unrecognized counts as an article.
func classify(r models.Resource) resourceKind {
	switch r.Type {
	case "video":
		return kindVideo
	case "course":
		return kindCourse
	}

	url := strings.ToLower(r.URL)
	for _, host := range videoHosts {
		if strings.Contains(url, host) {
			return kindVideo
		}
	}
	for _, host := range courseHosts {
		if strings.Contains(url, host) {
			return kindCourse
		}
	}
	if strings.Contains(url, "course") {
		return kindCourse
	}

	return kindArticle
}
