package ai

import (
	"context"
	"strings"
)

type imageTopic struct {
	name     string
	triggers []string
}

var imageTopics = []imageTopic{
	{name: "nature", triggers: []string{"طبیعت", "nature"}},
	{name: "city", triggers: []string{"شهر", "city"}},
	{name: "tech", triggers: []string{"تکنولوژی", "technology"}},
	{name: "art", triggers: []string{"هنر", "art"}},
	{name: "animals", triggers: []string{"حیوانات", "animal"}},
	{name: "food", triggers: []string{"غذا", "food"}},
	{name: "travel", triggers: []string{"سفر", "travel"}},
	{name: "sports", triggers: []string{"ورزش", "sport"}},
}

// Image picks a placeholder picture by topic. It never calls the network.
type Image struct {
	baseURL string
}

func NewImage(baseURL string) *Image {
	return &Image{baseURL: baseURL}
}

func (i *Image) Invoke(_ context.Context, query string) Result {
	lower := strings.ToLower(query)
	for _, topic := range imageTopics {
		for _, trigger := range topic.triggers {
			if strings.Contains(lower, trigger) {
				return Result{ImageURL: i.baseURL + "?" + topic.name}
			}
		}
	}
	return Result{ImageURL: i.baseURL}
}
