// Package ofx parses OFX/QFX bank exports and feeds them into the ledger.
package ofx

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/aclindsa/ofxgo"
	"github.com/shopspring/decimal"

	"github.com/tallyhq/tally/internal/model"
)

// Record is one transaction lifted out of an OFX statement, normalized to a
// positive amount plus a direction.
type Record struct {
	Date        time.Time
	FITID       string
	Name        string
	AccountID   string
	CheckNumber string
	Type        model.TxType
	Amount      decimal.Decimal
}

// Parser implements OFX/QFX file parsing.
type Parser struct{}

// NewParser creates a new OFX parser.
func NewParser() *Parser {
	return &Parser{}
}

// preprocessOFX fixes common formatting issues in OFX files.
func (p *Parser) preprocessOFX(content string) string {
	content = strings.TrimLeft(content, " \t\r\n")

	// Mixed-case SEVERITY values (should be INFO, WARN, or ERROR).
	severityRegex := regexp.MustCompile(`(?i)<SEVERITY>(Info|Warn|Error)</SEVERITY>`)
	content = severityRegex.ReplaceAllStringFunc(content, strings.ToUpper)

	// SGML-style files sometimes drop the closing angle bracket on opening
	// tags that stand alone on a line.
	tagFixRegex := regexp.MustCompile(`(?m)^(\s*<[A-Z][A-Z0-9._]*[A-Z0-9])$`)
	content = tagFixRegex.ReplaceAllString(content, "$1>")

	return content
}

// ParseFile parses an OFX/QFX file and returns its transactions. Bank and
// credit card statements are both handled.
func (p *Parser) ParseFile(_ context.Context, reader io.Reader) ([]Record, error) {
	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read OFX file: %w", err)
	}

	resp, err := ofxgo.ParseResponse(strings.NewReader(p.preprocessOFX(string(content))))
	if err != nil {
		return nil, fmt.Errorf("failed to parse OFX file: %w", err)
	}

	var records []Record
	var bankStmts, ccStmts int

	for _, msg := range resp.Bank {
		if stmt, ok := msg.(*ofxgo.StatementResponse); ok {
			bankStmts++
			records = append(records, p.statementRecords(stmt.BankTranList, string(stmt.BankAcctFrom.AcctID))...)
		}
	}
	for _, msg := range resp.CreditCard {
		if stmt, ok := msg.(*ofxgo.CCStatementResponse); ok {
			ccStmts++
			records = append(records, p.statementRecords(stmt.BankTranList, string(stmt.CCAcctFrom.AcctID))...)
		}
	}

	slog.Info("parsed OFX file",
		"records", len(records),
		"bank_statements", bankStmts,
		"cc_statements", ccStmts)
	return records, nil
}

func (p *Parser) statementRecords(list *ofxgo.TransactionList, accountID string) []Record {
	if list == nil {
		return nil
	}
	records := make([]Record, 0, len(list.Transactions))
	for i := range list.Transactions {
		records = append(records, p.convertTransaction(list.Transactions[i], accountID))
	}
	return records
}

// convertTransaction maps an OFX transaction onto a Record. OFX signs debits
// negative; the sign chooses the direction and the amount is stored positive.
func (p *Parser) convertTransaction(ofxTx ofxgo.Transaction, accountID string) Record {
	amount := decimal.NewFromBigRat(&ofxTx.TrnAmt.Rat, 2)
	txType := model.TxIncome
	if amount.IsNegative() {
		txType = model.TxExpense
		amount = amount.Neg()
	}

	return Record{
		FITID:       string(ofxTx.FiTID),
		Date:        ofxTx.DtPosted.Time,
		Name:        p.extractMerchantName(ofxTx),
		AccountID:   accountID,
		CheckNumber: string(ofxTx.CheckNum),
		Type:        txType,
		Amount:      amount,
	}
}

// extractMerchantName tries to get a clean merchant name from OFX data.
func (p *Parser) extractMerchantName(tx ofxgo.Transaction) string {
	// PAYEE carries the cleaner merchant name when present.
	if tx.Payee != nil && tx.Payee.Name != "" {
		return string(tx.Payee.Name)
	}

	name := string(tx.Name)
	if tx.Memo != "" && isGenericDescription(name) {
		name = string(tx.Memo)
	}
	name = strings.TrimSpace(name)

	prefixes := []string{
		"POS PURCHASE ",
		"PURCHASE AUTHORIZED ON ",
		"DEBIT CARD PURCHASE ",
		"ACH DEBIT ",
		"CHECK CARD ",
		"VISA PURCHASE ",
		"MC PURCHASE ",
		"DEBIT PURCHASE ",
	}
	for _, prefix := range prefixes {
		if strings.HasPrefix(strings.ToUpper(name), prefix) {
			name = name[len(prefix):]
			break
		}
	}

	// Strip leading "MM/DD " date fragments some banks prepend.
	if len(name) > 5 && name[2] == '/' && name[5] == ' ' {
		name = strings.TrimSpace(name[6:])
	}

	return name
}

// isGenericDescription checks if a transaction name is too generic to be a
// merchant.
func isGenericDescription(name string) bool {
	generic := []string{
		"DEBIT",
		"CREDIT",
		"PURCHASE",
		"PAYMENT",
		"POS TRANSACTION",
		"CARD PURCHASE",
	}

	upperName := strings.ToUpper(name)
	for _, g := range generic {
		if upperName == g {
			return true
		}
	}
	return false
}
