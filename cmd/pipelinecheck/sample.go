package main

import (
	"context"

	"github.com/aura-lectures/backend/internal/models"
)

// sampleTranscript stands in for speech-to-text output.
var sampleTranscript = models.Transcript{
	Language: "en",
	Segments: []models.Segment{
		{Start: 0.0, End: 5.0, Text: "Welcome to today's lecture on machine learning fundamentals."},
		{Start: 5.5, End: 12.0, Text: "Machine learning is a subset of artificial intelligence that enables computers to learn from data."},
		{Start: 12.5, End: 20.0, Text: "There are three main types of machine learning: supervised learning, unsupervised learning, and reinforcement learning."},
		{Start: 20.5, End: 28.0, Text: "Supervised learning uses labeled data to train models. For example, classifying emails as spam or not spam."},
		{Start: 28.5, End: 35.0, Text: "Unsupervised learning finds patterns in unlabeled data, such as customer segmentation."},
		{Start: 35.5, End: 42.0, Text: "Reinforcement learning trains agents to make decisions through trial and error, like training a robot to walk."},
		{Start: 42.5, End: 50.0, Text: "Neural networks are a popular machine learning technique inspired by the human brain's structure."},
		{Start: 50.5, End: 58.0, Text: "Deep learning uses multi-layer neural networks to process complex patterns in images, text, and audio."},
		{Start: 58.5, End: 65.0, Text: "That concludes our introduction to machine learning. Next lecture, we'll dive into specific algorithms."},
	},
}

type sampleTranscriber struct{}

func (sampleTranscriber) Name() string { return "sample" }

func (sampleTranscriber) Transcribe(_ context.Context, _ string) (*models.Transcript, error) {
	t := sampleTranscript
	t.Segments = append([]models.Segment(nil), sampleTranscript.Segments...)
	return &t, nil
}
