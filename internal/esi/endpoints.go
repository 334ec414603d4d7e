// EVE Tracker - Background Character Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/evetracker

package esi

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/tomtom215/evetracker/internal/models"
)

// maxAssetPages bounds pagination. A larger X-Pages fails the fetch rather
// than store a truncated asset list.
const maxAssetPages = 100

// Wallet returns the character's ISK balance. ESI returns a bare number.
func (c *Client) Wallet(ctx context.Context, characterID int64) (float64, error) {
	var balance float64
	err := c.Request(ctx, characterID, http.MethodGet, fmt.Sprintf("/characters/%d/wallet/", characterID), nil, &balance)
	return balance, err
}

// WalletJournal returns the first page of the wallet journal, newest first.
func (c *Client) WalletJournal(ctx context.Context, characterID int64) ([]models.JournalEntry, error) {
	var entries []models.JournalEntry
	err := c.Request(ctx, characterID, http.MethodGet, fmt.Sprintf("/characters/%d/wallet/journal/", characterID), nil, &entries)
	return entries, err
}

// Assets returns every asset of the character, following X-Pages.
func (c *Client) Assets(ctx context.Context, characterID int64) ([]models.Asset, error) {
	path := fmt.Sprintf("/characters/%d/assets/", characterID)

	var all []models.Asset
	pages := 1
	for page := 1; page <= pages; page++ {
		resp, err := c.do(ctx, call{
			characterID: characterID,
			method:      http.MethodGet,
			path:        path,
			query:       url.Values{"page": {strconv.Itoa(page)}},
		})
		if err != nil {
			return nil, err
		}

		var items []models.Asset
		if err := decode(resp, path, &items); err != nil {
			return nil, err
		}
		all = append(all, items...)

		if page == 1 {
			if n, err := strconv.Atoi(resp.header.Get("X-Pages")); err == nil && n > 1 {
				if n > maxAssetPages {
					return nil, fmt.Errorf("%s: X-Pages %d exceeds the limit of %d pages", path, n, maxAssetPages)
				}
				pages = n
			}
		}
	}
	return all, nil
}

type skillsResponse struct {
	Skills        []models.Skill `json:"skills"`
	TotalSP       int64          `json:"total_sp"`
	UnallocatedSP int64          `json:"unallocated_sp"`
}

// Skills returns the character's trained skills. FetchedAt is left zero for
// the caller to stamp.
func (c *Client) Skills(ctx context.Context, characterID int64) (*models.SkillSnapshot, error) {
	var sr skillsResponse
	if err := c.Request(ctx, characterID, http.MethodGet, fmt.Sprintf("/characters/%d/skills/", characterID), nil, &sr); err != nil {
		return nil, err
	}
	return &models.SkillSnapshot{Skills: sr.Skills, TotalSP: sr.TotalSP, UnallocatedSP: sr.UnallocatedSP}, nil
}

// Standings returns NPC standings towards the character.
func (c *Client) Standings(ctx context.Context, characterID int64) ([]models.Standing, error) {
	var standings []models.Standing
	err := c.Request(ctx, characterID, http.MethodGet, fmt.Sprintf("/characters/%d/standings/", characterID), nil, &standings)
	return standings, err
}

// CharacterInfo returns the public profile of a character.
func (c *Client) CharacterInfo(ctx context.Context, characterID int64) (*models.ESICharacterInfo, error) {
	var info models.ESICharacterInfo
	if err := c.RequestPublic(ctx, http.MethodGet, fmt.Sprintf("/characters/%d/", characterID), nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// CorporationInfo returns the public profile of a corporation.
func (c *Client) CorporationInfo(ctx context.Context, corporationID int64) (*models.ESICorporationInfo, error) {
	var info models.ESICorporationInfo
	if err := c.RequestPublic(ctx, http.MethodGet, fmt.Sprintf("/corporations/%d/", corporationID), nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// ServerStatus returns the Tranquility server status.
func (c *Client) ServerStatus(ctx context.Context) (*models.ESIServerStatus, error) {
	var status models.ESIServerStatus
	if err := c.RequestPublic(ctx, http.MethodGet, "/status/", nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}
