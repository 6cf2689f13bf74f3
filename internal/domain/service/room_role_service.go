package service

import (
	"chatbuysell/internal/domain/entity"
	"chatbuysell/internal/domain/repository"
)

// IsBuyer decides which side of the room the current user takes when opening
// a chat with a match candidate.
//
// The rule is intentionally loose: a "buyer" identity is always the buyer,
// and so is anyone responding to a want-to-sell post, even a seller identity.
// A seller identity responding to a want-to-buy post is the seller.
func IsBuyer(identity entity.Identity, candidate entity.MatchCandidate) bool {
	return identity.Type == entity.IdentityBuyer || candidate.Post.Type == entity.PostWantToSell
}

// RoomParticipants builds the create-room request for identity and candidate.
func RoomParticipants(identity entity.Identity, candidate entity.MatchCandidate) repository.CreateRoomInput {
	if IsBuyer(identity, candidate) {
		return repository.CreateRoomInput{
			BuyerID:  identity.ID,
			SellerID: candidate.User.ID,
			PostID:   candidate.Post.ID,
		}
	}
	return repository.CreateRoomInput{
		BuyerID:  candidate.User.ID,
		SellerID: identity.ID,
		PostID:   candidate.Post.ID,
	}
}
