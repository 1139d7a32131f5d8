package ledger

import (
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// issuedEventName is the issuance event scanned out of mint receipts.
const issuedEventName = "CredentialIssued"

// contractABI is the subset of the AcademicCredential ABI this client uses.
const contractABI = `[
  {"type":"function","name":"ownerOf","stateMutability":"view","inputs":[{"name":"tokenId","type":"uint256"}],"outputs":[{"name":"","type":"address"}]},
  {"type":"function","name":"balanceOf","stateMutability":"view","inputs":[{"name":"owner","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"tokenOfOwnerByIndex","stateMutability":"view","inputs":[{"name":"owner","type":"address"},{"name":"index","type":"uint256"}],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"tokenURI","stateMutability":"view","inputs":[{"name":"tokenId","type":"uint256"}],"outputs":[{"name":"","type":"string"}]},
  {"type":"function","name":"credentialIssuer","stateMutability":"view","inputs":[{"name":"tokenId","type":"uint256"}],"outputs":[{"name":"","type":"address"}]},
  {"type":"function","name":"certificateTitle","stateMutability":"view","inputs":[{"name":"tokenId","type":"uint256"}],"outputs":[{"name":"","type":"string"}]},
  {"type":"function","name":"universityNames","stateMutability":"view","inputs":[{"name":"issuer","type":"address"}],"outputs":[{"name":"","type":"string"}]},
  {"type":"function","name":"hasRole","stateMutability":"view","inputs":[{"name":"role","type":"bytes32"},{"name":"account","type":"address"}],"outputs":[{"name":"","type":"bool"}]},
  {"type":"function","name":"getUniversityCount","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"getUniversityAtIndex","stateMutability":"view","inputs":[{"name":"index","type":"uint256"}],"outputs":[{"name":"","type":"address"},{"name":"","type":"string"}]},
  {"type":"function","name":"issueCredential","stateMutability":"nonpayable","inputs":[{"name":"student","type":"address"},{"name":"uri","type":"string"},{"name":"title","type":"string"}],"outputs":[]},
  {"type":"function","name":"revokeCredential","stateMutability":"nonpayable","inputs":[{"name":"tokenId","type":"uint256"}],"outputs":[]},
  {"type":"function","name":"addUniversity","stateMutability":"nonpayable","inputs":[{"name":"university","type":"address"},{"name":"name","type":"string"}],"outputs":[]},
  {"type":"event","name":"CredentialIssued","inputs":[{"name":"issuer","type":"address","indexed":true},{"name":"to","type":"address","indexed":true},{"name":"tokenId","type":"uint256","indexed":false},{"name":"title","type":"string","indexed":false}],"anonymous":false}
]`

var (
	parsedABIOnce sync.Once
	parsedABIVal  abi.ABI
	parsedABIErr  error
)

func parsedABI() (abi.ABI, error) {
	parsedABIOnce.Do(func() {
		parsedABIVal, parsedABIErr = abi.JSON(strings.NewReader(contractABI))
	})
	return parsedABIVal, parsedABIErr
}
