package services

import (
	"sort"

	"place-swipe-backend/internal/models"
)

// CategoryCounts projects per-category counts from the current candidate set.
// Recomputed wholesale whenever the set changes.
func CategoryCounts(candidates []models.Candidate) []models.CategoryCount {
	byCategory := make(map[models.Category]int)
	for _, candidate := range candidates {
		byCategory[candidate.Category]++
	}

	counts := make([]models.CategoryCount, 0, len(byCategory))
	for category, count := range byCategory {
		counts = append(counts, models.CategoryCount{Category: category, Count: count})
	}
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].Count != counts[j].Count {
			return counts[i].Count > counts[j].Count
		}
		return counts[i].Category < counts[j].Category
	})
	return counts
}

// FollowerDigests projects the per-follower remaining counts from the current
// candidate set: for each saver, the number of not-yet-retired candidates they
// contributed to.
func FollowerDigests(candidates []models.Candidate) []models.FollowerDigest {
	byUser := make(map[string]*models.FollowerDigest)
	var order []string
	for _, candidate := range candidates {
		for _, saver := range candidate.Savers {
			digest, ok := byUser[saver.UserID]
			if !ok {
				digest = &models.FollowerDigest{
					UserID:    saver.UserID,
					Username:  saver.Username,
					AvatarURL: saver.AvatarURL,
				}
				byUser[saver.UserID] = digest
				order = append(order, saver.UserID)
			}
			digest.Remaining++
		}
	}

	digests := make([]models.FollowerDigest, 0, len(order))
	for _, userID := range order {
		digests = append(digests, *byUser[userID])
	}
	sort.Slice(digests, func(i, j int) bool {
		if digests[i].Remaining != digests[j].Remaining {
			return digests[i].Remaining > digests[j].Remaining
		}
		return digests[i].Username < digests[j].Username
	})
	return digests
}
