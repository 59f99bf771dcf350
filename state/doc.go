// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package state manages the storage slots of the builtin modules.
// It follows the flow as bellow:
//
//	         o
//	         |
//	[ revertable state ]
//	         |
//	  [ stacked map ] -> [ journal ] -> [ playback(staging) ] -> [ kv batch ]
//	         |
//	  [ stater cache ]
//	         |
//	   [ kv store ]
//
// Every slot is addressed by a module address and a 32 bytes key, and holds an
// RLP encoded value. An empty value means the slot is unset.
package state
