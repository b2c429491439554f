package dto

// ActionParameter describes one input field a wallet renders before posting
// the transaction request.
type ActionParameter struct {
	Name     string `json:"name"`
	Label    string `json:"label"`
	Required bool   `json:"required"`
}

// LinkedAction is one actionable button in the metadata. Href may contain
// {param} templates resolved by the wallet from the collected parameters.
type LinkedAction struct {
	Label      string            `json:"label"`
	Href       string            `json:"href"`
	Parameters []ActionParameter `json:"parameters,omitempty"`
}

// ActionLinks groups the linked actions of a metadata document.
type ActionLinks struct {
	Actions []LinkedAction `json:"actions"`
}

// ActionMetadata is the discovery document returned on GET. Wallets use it
// to render the action card.
type ActionMetadata struct {
	Icon        string       `json:"icon"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Label       string       `json:"label"`
	Links       *ActionLinks `json:"links,omitempty"`
}

// BuildTransactionRequest is the POST body carrying the visitor's account.
type BuildTransactionRequest struct {
	Account string `json:"account" validate:"required,solana_address"`
}

// NextAction tells the wallet where to post after the signed transaction
// lands.
type NextAction struct {
	Type string `json:"type"`
	Href string `json:"href"`
}

// TransactionLinks carries the follow-up callback of a transaction response.
type TransactionLinks struct {
	Next NextAction `json:"next"`
}

// PostTransactionResponse is the unsigned transaction envelope returned on
// POST: a base64 serialized transaction plus the finalize callback.
type PostTransactionResponse struct {
	Transaction string            `json:"transaction"`
	Message     string            `json:"message"`
	Links       *TransactionLinks `json:"links,omitempty"`
}

// FinalizeResponse acknowledges the side effects of a completed action.
type FinalizeResponse struct {
	MailID  uint   `json:"mail_id"`
	Message string `json:"message"`
}

// ActionRule maps a website path pattern to the API path serving it, per
// the actions.json discovery convention.
type ActionRule struct {
	PathPattern string `json:"pathPattern"`
	APIPath     string `json:"apiPath"`
}

// ActionRuleSet is the document served at /actions.json.
type ActionRuleSet struct {
	Rules []ActionRule `json:"rules"`
}
