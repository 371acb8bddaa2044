package statement

import (
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"gopkg.in/xmlpath.v2"

	"github.com/coastline-livery/charterbooks/internal/amounts"
	"github.com/coastline-livery/charterbooks/internal/errs"
	"github.com/coastline-livery/charterbooks/internal/logging"
)

// XPath expressions for the OFX elements the import cares about. QBO files
// from QuickBooks use the same element names.
var (
	ofxRootPath     = xmlpath.MustCompile("//OFX")
	ofxStmtTrnPath  = xmlpath.MustCompile("//STMTTRN")
	ofxDatePath     = xmlpath.MustCompile("DTPOSTED")
	ofxAmountPath   = xmlpath.MustCompile("TRNAMT")
	ofxNamePath     = xmlpath.MustCompile("NAME")
	ofxMemoPath     = xmlpath.MustCompile("MEMO")
	ofxCheckNumPath = xmlpath.MustCompile("CHECKNUM")
	ofxFitIDPath    = xmlpath.MustCompile("FITID")
	ofxBankAcctPath = xmlpath.MustCompile("//BANKACCTFROM/ACCTID")
	ofxCardAcctPath = xmlpath.MustCompile("//CCACCTFROM/ACCTID")
)

// ParseOFX reads an OFX or QBO statement from r into statement lines. Both
// the SGML flavor (OFX 1.x, what the banks actually serve) and the XML
// flavor (OFX 2.x, QBO) are handled; SGML input is normalized to XML first.
func ParseOFX(r io.Reader, logger logging.Logger) ([]Line, error) {
	if logger == nil {
		logger = logging.GetLogger()
	}
	logger.Info("Reading OFX statement from reader")

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("error reading input: %w", err)
	}

	normalized := normalizeOFX(string(data))
	root, err := xmlpath.Parse(strings.NewReader(normalized))
	if err != nil {
		return nil, &errs.InvalidFormatError{
			FilePath:       "(from reader)",
			ExpectedFormat: "OFX",
			Msg:            fmt.Sprintf("not parseable as OFX: %v", err),
		}
	}

	if iter := ofxRootPath.Iter(root); !iter.Next() {
		return nil, &errs.InvalidFormatError{
			FilePath:       "(from reader)",
			ExpectedFormat: "OFX",
			Msg:            "no OFX element found",
		}
	}

	accountID := firstMatch(ofxBankAcctPath, root)
	if accountID == "" {
		accountID = firstMatch(ofxCardAcctPath, root)
	}

	var lines []Line
	iter := ofxStmtTrnPath.Iter(root)
	for iter.Next() {
		node := iter.Node()

		line, err := ofxNodeToLine(node, accountID)
		if err != nil {
			logger.WithError(err).Warn("Skipping unparseable OFX transaction")
			continue
		}
		lines = append(lines, line)
	}

	logger.Info("Parsed OFX statement",
		logging.Field{Key: "lines", Value: len(lines)},
		logging.Field{Key: "account", Value: accountID})
	return lines, nil
}

// ofxNodeToLine converts one STMTTRN node into a Line. OFX amounts are
// already signed the way the import wants them: negative for debits.
func ofxNodeToLine(node *xmlpath.Node, accountID string) (Line, error) {
	dateStr := strings.TrimSpace(firstMatch(ofxDatePath, node))
	postedOn, err := parseOFXDate(dateStr)
	if err != nil {
		return Line{}, &errs.ParseError{
			Parser: "OFX", Field: "DTPOSTED", Value: dateStr, Err: err,
		}
	}

	amountStr := strings.TrimSpace(firstMatch(ofxAmountPath, node))
	amount, err := amounts.ParseAmount(amountStr)
	if err != nil {
		return Line{}, &errs.ParseError{
			Parser: "OFX", Field: "TRNAMT", Value: amountStr, Err: err,
		}
	}

	name := strings.TrimSpace(firstMatch(ofxNamePath, node))
	memo := strings.TrimSpace(firstMatch(ofxMemoPath, node))
	description := name
	if memo != "" && !strings.EqualFold(memo, name) {
		if description != "" {
			description += " "
		}
		description += memo
	}

	line := Line{
		PostedOn:    postedOn,
		Description: cleanDescription(description),
		Amount:      amount,
		CheckNumber: strings.TrimLeft(strings.TrimSpace(firstMatch(ofxCheckNumPath, node)), "0"),
		AccountID:   accountID,
		Reference:   strings.TrimSpace(firstMatch(ofxFitIDPath, node)),
	}
	if line.CheckNumber == "" {
		line.CheckNumber = ExtractCheckNumber(line.Description)
	}
	return line, nil
}

// firstMatch evaluates an XPath from the given node and returns the first
// matching node's text, or "" when nothing matches.
func firstMatch(path *xmlpath.Path, node *xmlpath.Node) string {
	if iter := path.Iter(node); iter.Next() {
		return iter.Node().String()
	}
	return ""
}

// parseOFXDate parses an OFX DTPOSTED value. The field packs a timestamp and
// an optional timezone suffix after the date, e.g. "20240715120000[-5:EST]";
// only the date part matters for posting.
func parseOFXDate(value string) (time.Time, error) {
	if len(value) < 8 {
		return time.Time{}, fmt.Errorf("date too short: %q", value)
	}
	return time.Parse("20060102", value[:8])
}

// leafTagPattern matches an SGML-style element line with an unclosed value,
// e.g. "<TRNAMT>-45.00".
var leafTagPattern = regexp.MustCompile(`^(\s*)<([A-Za-z0-9_.]+)>([^<]*\S)\s*$`)

// normalizeOFX turns OFX 1.x SGML into well-formed XML: the key/value header
// block is dropped and unclosed leaf elements get closing tags. XML input
// (OFX 2.x, QBO) passes through untouched.
func normalizeOFX(text string) string {
	upper := strings.ToUpper(text)
	idx := strings.Index(upper, "<OFX>")
	if idx < 0 {
		return text
	}
	header, body := text[:idx], text[idx:]
	if strings.Contains(header, "<?xml") {
		return text
	}

	lines := strings.Split(body, "\n")
	for i, line := range lines {
		m := leafTagPattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		lines[i] = m[1] + "<" + m[2] + ">" + escapeXMLText(m[3]) + "</" + m[2] + ">"
	}
	return strings.Join(lines, "\n")
}

// escapeXMLText escapes the characters that break XML parsing in raw SGML
// values. Vendor names with ampersands are common in bank feeds.
func escapeXMLText(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	return s
}
